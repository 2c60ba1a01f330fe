// Package snapshot reads and writes everything a restaurant owns as one document.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"controlos-backend/internal/models"
	"controlos-backend/internal/settings"
	"controlos-backend/internal/staffing"

	"gorm.io/gorm"
)

var (
	ErrSnapshotNotFound = errors.New("restaurant not found")
	ErrForeignEmployee  = errors.New("employee belongs to another restaurant")
	ErrDuplicateDate    = errors.New("duplicate date")
)

type Snapshot struct {
	Settings      settings.Document           `json:"settings"`
	Employees     []models.Employee           `json:"employees"`
	StaffingTable []models.StaffingTableEntry `json:"staffing_table"`
	History       []models.HistoryEntry       `json:"history"`
	Schedules     []models.DailySchedule      `json:"schedules"`
}

func restaurantExists(db *gorm.DB, restaurantID uint) error {
	var count int64
	if err := db.Model(&models.Restaurant{}).Where("id = ?", restaurantID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

// Load assembles the full snapshot for restaurantID.
func Load(ctx context.Context, db *gorm.DB, restaurantID uint) (*Snapshot, error) {
	db = db.WithContext(ctx)
	if err := restaurantExists(db, restaurantID); err != nil {
		return nil, err
	}

	cfg, err := settings.Load(db, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	snap := &Snapshot{Settings: settings.FromModel(cfg)}

	if err := db.Where("restaurant_id = ?", restaurantID).Order("name asc").Find(&snap.Employees).Error; err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	if snap.StaffingTable, err = staffing.LoadTable(db, restaurantID); err != nil {
		return nil, fmt.Errorf("load staffing table: %w", err)
	}
	if err := db.Where("restaurant_id = ?", restaurantID).Order("date asc").Find(&snap.History).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if err := db.Where("restaurant_id = ?", restaurantID).Order("date asc").Find(&snap.Schedules).Error; err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	return snap, nil
}

// Validate checks the snapshot before any write happens.
func (s *Snapshot) Validate() error {
	if err := s.Settings.Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := staffing.Validate(s.StaffingTable); err != nil {
		return fmt.Errorf("staffing table: %w", err)
	}

	seen := map[string]struct{}{}
	for _, h := range s.History {
		key := h.Date.Format("2006-01-02")
		if _, ok := seen[key]; ok {
			return fmt.Errorf("history: %w %s", ErrDuplicateDate, key)
		}
		seen[key] = struct{}{}
	}

	seen = map[string]struct{}{}
	for _, sc := range s.Schedules {
		key := sc.Date.Format("2006-01-02")
		if _, ok := seen[key]; ok {
			return fmt.Errorf("schedules: %w %s", ErrDuplicateDate, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Upsert replaces the restaurant's data with snap in a single transaction.
// Employees keep their IDs because schedules reference them; every other
// collection is rewritten wholesale.
func Upsert(ctx context.Context, db *gorm.DB, restaurantID uint, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := restaurantExists(tx, restaurantID); err != nil {
			return err
		}

		if _, err := settings.Save(tx, restaurantID, snap.Settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		if err := upsertEmployees(tx, restaurantID, snap.Employees); err != nil {
			return err
		}
		if err := staffing.ReplaceTable(tx, restaurantID, snap.StaffingTable); err != nil {
			return fmt.Errorf("save staffing table: %w", err)
		}

		if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&models.HistoryEntry{}).Error; err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		if len(snap.History) > 0 {
			history := make([]models.HistoryEntry, len(snap.History))
			for i, h := range snap.History {
				h.ID = 0
				h.RestaurantID = restaurantID
				h.DayOfWeek = int(h.Date.Weekday())
				history[i] = h
			}
			if err := tx.Create(&history).Error; err != nil {
				return fmt.Errorf("save history: %w", err)
			}
		}

		if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&models.DailySchedule{}).Error; err != nil {
			return fmt.Errorf("clear schedules: %w", err)
		}
		if len(snap.Schedules) > 0 {
			schedules := make([]models.DailySchedule, len(snap.Schedules))
			for i, sc := range snap.Schedules {
				sc.ID = 0
				sc.RestaurantID = restaurantID
				schedules[i] = sc
			}
			if err := tx.Create(&schedules).Error; err != nil {
				return fmt.Errorf("save schedules: %w", err)
			}
		}
		return nil
	})
}

func upsertEmployees(tx *gorm.DB, restaurantID uint, employees []models.Employee) error {
	var existing []uint
	if err := tx.Model(&models.Employee{}).Where("restaurant_id = ?", restaurantID).Pluck("id", &existing).Error; err != nil {
		return fmt.Errorf("load employees: %w", err)
	}
	owned := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		owned[id] = struct{}{}
	}

	keep := make([]uint, 0, len(employees))
	for _, e := range employees {
		e.RestaurantID = restaurantID
		if e.ID == 0 {
			if err := tx.Create(&e).Error; err != nil {
				return fmt.Errorf("create employee: %w", err)
			}
			keep = append(keep, e.ID)
			continue
		}
		if _, ok := owned[e.ID]; !ok {
			return fmt.Errorf("%w: %d", ErrForeignEmployee, e.ID)
		}
		if err := tx.Omit("created_at").Save(&e).Error; err != nil {
			return fmt.Errorf("update employee %d: %w", e.ID, err)
		}
		keep = append(keep, e.ID)
	}

	q := tx.Where("restaurant_id = ?", restaurantID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	if err := q.Delete(&models.Employee{}).Error; err != nil {
		return fmt.Errorf("remove employees: %w", err)
	}
	return nil
}
