package audit

import (
	"errors"
	"fmt"

	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID           uint               `json:"id"`
	CreatedAt    string             `json:"created_at"`
	RestaurantID *uint              `json:"restaurant_id"`
	UserID       uint               `json:"user_id"`
	UserName     string             `json:"user_name"`
	EntityType   string             `json:"entity_type"`
	EntityID     uint               `json:"entity_id"`
	Action       models.AuditAction `json:"action"`
	Description  string             `json:"description"`
	IsUndone     bool               `json:"is_undone"`
	UndoneBy     *uint              `json:"undone_by"`
	UndoneAt     *string            `json:"undone_at"`
}

// GET /api/audit-logs?entity_type=employee&entity_id=1&user_id=2
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.AuditLog{}).Where("restaurant_id = ?", restaurantID)

		if v := c.Query("user_id"); v != "" {
			var uid uint
			if _, err := fmt.Sscan(v, &uid); err == nil && uid > 0 {
				dbq = dbq.Where("user_id = ?", uid)
			}
		}
		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if v := c.Query("entity_id"); v != "" {
			var eid uint
			if _, err := fmt.Sscan(v, &eid); err == nil && eid > 0 {
				dbq = dbq.Where("entity_id = ?", eid)
			}
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Limit(500).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			var undoneAt *string
			if log.UndoneAt != nil {
				formatted := log.UndoneAt.Format("2006-01-02 15:04:05")
				undoneAt = &formatted
			}
			resp = append(resp, AuditLogResponse{
				ID:           log.ID,
				CreatedAt:    log.CreatedAt.Format("2006-01-02 15:04:05"),
				RestaurantID: log.RestaurantID,
				UserID:       log.UserID,
				UserName:     log.UserName,
				EntityType:   log.EntityType,
				EntityID:     log.EntityID,
				Action:       log.Action,
				Description:  log.Description,
				IsUndone:     log.IsUndone,
				UndoneBy:     log.UndoneBy,
				UndoneAt:     undoneAt,
			})
		}
		return c.JSON(resp)
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var logID uint
		if _, err := fmt.Sscan(c.Params("id"), &logID); err != nil || logID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid audit log id")
		}

		actor, err := auth.CurrentActor(c, UserName)
		if err != nil {
			return err
		}

		var log models.AuditLog
		if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Audit log not found")
		}

		role, _ := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
		if role != models.RoleSuperAdmin {
			if actor.RestaurantID == nil || log.RestaurantID == nil || *log.RestaurantID != *actor.RestaurantID {
				return fiber.NewError(fiber.StatusForbidden, "You can only undo changes in your own restaurant")
			}
		}

		if err := UndoLog(logID, actor.UserID, actor.Name); err != nil {
			if errors.Is(err, ErrAlreadyUndone) || errors.Is(err, ErrNotUndoable) || errors.Is(err, ErrUnknownEntityType) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return err
		}

		return c.JSON(fiber.Map{"message": "Change undone"})
	}
}
