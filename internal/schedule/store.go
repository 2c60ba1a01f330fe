package schedule

import (
	"errors"
	"time"

	"controlos-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Load returns the stored schedule for date, or a new unsaved draft when none exists.
func Load(db *gorm.DB, restaurantID uint, date time.Time) (*models.DailySchedule, error) {
	return load(db, restaurantID, date, false)
}

// LoadForUpdate is Load with a row lock, for use inside a transaction. The
// draft row is created first when missing, so concurrent first edits of a date
// queue on the same lock instead of racing on the unique index.
func LoadForUpdate(tx *gorm.DB, restaurantID uint, date time.Time) (*models.DailySchedule, error) {
	if err := ensureRow(tx, restaurantID, date).Error; err != nil {
		return nil, err
	}
	return load(tx, restaurantID, date, true)
}

func ensureRow(tx *gorm.DB, restaurantID uint, date time.Time) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "restaurant_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(New(restaurantID, date))
}

func load(db *gorm.DB, restaurantID uint, date time.Time, lock bool) (*models.DailySchedule, error) {
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var s models.DailySchedule
	err := q.Where("restaurant_id = ? AND date = ?", restaurantID, date.Format("2006-01-02")).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return New(restaurantID, date), nil
	}
	if err != nil {
		return nil, err
	}
	normalize(&s)
	return &s, nil
}

// Save inserts a new schedule or updates a stored one.
func Save(db *gorm.DB, s *models.DailySchedule) error {
	return db.Save(s).Error
}

// List returns the stored schedules in [from, to], oldest first.
func List(db *gorm.DB, restaurantID uint, from, to time.Time) ([]models.DailySchedule, error) {
	var out []models.DailySchedule
	err := db.Where("restaurant_id = ? AND date BETWEEN ? AND ?", restaurantID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date asc").Find(&out).Error
	return out, err
}
