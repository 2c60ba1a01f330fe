package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"controlos-backend/internal/database"
	"controlos-backend/internal/models"

	"gorm.io/gorm"
)

const (
	EntityEmployee      = "employee"
	EntityHistoryEntry  = "history_entry"
	EntityStaffingTable = "staffing_table"
	EntitySchedule      = "schedule"
	EntitySettings      = "settings"
	EntityInvoice       = "invoice"
)

var (
	ErrAlreadyUndone     = errors.New("this change has already been undone")
	ErrNotUndoable       = errors.New("this action cannot be undone")
	ErrUnknownEntityType = errors.New("unknown entity type")
)

type LogOptions struct {
	RestaurantID *uint
	UserID       uint
	UserName     string
	EntityType   string
	EntityID     uint
	Action       models.AuditAction
	Description  string
	Before       any
	After        any
}

// UserName looks up the display name stored on audit rows.
func UserName(userID uint) (string, error) {
	var user models.User
	if err := database.DB.Select("name").First(&user, "id = ?", userID).Error; err != nil {
		return "", err
	}
	return user.Name, nil
}

func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// WriteLogTx writes through tx so the log commits with the change it describes.
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	// jsonb rejects empty strings
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		RestaurantID: opts.RestaurantID,
		UserID:       opts.UserID,
		UserName:     opts.UserName,
		EntityType:   opts.EntityType,
		EntityID:     opts.EntityID,
		Action:       opts.Action,
		Description:  opts.Description,
		BeforeData:   beforeStr,
		AfterData:    afterStr,
	}

	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// UndoLog reverts the change recorded by logID and records the undo itself.
func UndoLog(logID uint, userID uint, userName string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.First(&log, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("audit log not found: %w", err)
		}
		if log.IsUndone {
			return ErrAlreadyUndone
		}

		switch log.Action {
		case models.AuditActionCreate:
			if err := deleteEntity(tx, log.EntityType, log.EntityID); err != nil {
				return fmt.Errorf("delete %s: %w", log.EntityType, err)
			}
		case models.AuditActionUpdate:
			if err := restoreEntity(tx, log.EntityType, log.EntityID, log.BeforeData); err != nil {
				return fmt.Errorf("restore %s: %w", log.EntityType, err)
			}
		case models.AuditActionDelete:
			if err := recreateEntity(tx, log.EntityType, log.BeforeData); err != nil {
				return fmt.Errorf("recreate %s: %w", log.EntityType, err)
			}
		default:
			return ErrNotUndoable
		}

		now := time.Now()
		log.IsUndone = true
		log.UndoneBy = &userID
		log.UndoneAt = &now
		if err := tx.Save(&log).Error; err != nil {
			return fmt.Errorf("mark audit log undone: %w", err)
		}

		undo := models.AuditLog{
			RestaurantID: log.RestaurantID,
			UserID:       userID,
			UserName:     userName,
			EntityType:   log.EntityType,
			EntityID:     log.EntityID,
			Action:       models.AuditActionUndo,
			Description:  "Undone: " + log.Description,
			BeforeData:   log.AfterData,
			AfterData:    log.BeforeData,
			Undone:       true,
		}
		if err := tx.Create(&undo).Error; err != nil {
			return fmt.Errorf("write undo log: %w", err)
		}
		return nil
	})
}

func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case EntityEmployee:
		return tx.Delete(&models.Employee{}, "id = ?", entityID).Error
	case EntityHistoryEntry:
		return tx.Delete(&models.HistoryEntry{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
}

// recreateEntity restores a deleted row under its original ID so references stay valid.
func recreateEntity(tx *gorm.DB, entityType string, dataJSON string) error {
	switch entityType {
	case EntityEmployee:
		var employee models.Employee
		if err := json.Unmarshal([]byte(dataJSON), &employee); err != nil {
			return err
		}
		return tx.Create(&employee).Error

	case EntityHistoryEntry:
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(dataJSON), &entry); err != nil {
			return err
		}
		return tx.Create(&entry).Error

	default:
		return fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
}

func restoreEntity(tx *gorm.DB, entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case EntityEmployee:
		var employee models.Employee
		if err := json.Unmarshal([]byte(dataJSON), &employee); err != nil {
			return err
		}
		return tx.Model(&models.Employee{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":       employee.Name,
			"position":   employee.Position,
			"phone":      employee.Phone,
			"is_manager": employee.IsManager,
			"is_trainee": employee.IsTrainee,
			"active":     employee.Active,
		}).Error

	default:
		// history entries are immutable, so they never carry an update log
		return fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
}
