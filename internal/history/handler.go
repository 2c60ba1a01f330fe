package history

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"controlos-backend/internal/audit"
	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/history?day_of_week=5&from=2024-01-01&to=2024-03-31
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("restaurant_id = ?", restaurantID)

		if v := c.Query("day_of_week"); v != "" {
			dow, err := strconv.Atoi(v)
			if err != nil || dow < 0 || dow > 6 {
				return fiber.NewError(fiber.StatusBadRequest, "day_of_week must be 0-6")
			}
			dbq = dbq.Where("day_of_week = ?", dow)
		}
		if v := c.Query("from"); v != "" {
			from, ok := ParseDate(v)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid from date")
			}
			dbq = dbq.Where("date >= ?", from.Format("2006-01-02"))
		}
		if v := c.Query("to"); v != "" {
			to, ok := ParseDate(v)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid to date")
			}
			dbq = dbq.Where("date <= ?", to.Format("2006-01-02"))
		}

		var entries []models.HistoryEntry
		if err := dbq.Order("date desc").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list history")
		}
		return c.JSON(entries)
	}
}

// POST /api/history/import (multipart "file")
func ImportHandler(im *Importer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read upload")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read upload")
		}

		res, err := im.Import(c.UserContext(), restaurantID, fh.Filename, data)
		if err != nil {
			if errors.Is(err, ErrMissingColumns) || errors.Is(err, ErrEmptyWorksheet) || errors.Is(err, ErrNoWorksheet) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			logger.WarnLog(c.UserContext(), "history import of %s failed: %v", fh.Filename, err)
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Could not read spreadsheet")
		}
		return c.JSON(res)
	}
}

// DELETE /api/history/:id
func DeleteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c, audit.UserName)
		if err != nil {
			return err
		}

		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
		}

		var entry models.HistoryEntry
		if err := database.DB.First(&entry, "id = ? AND restaurant_id = ?", id, restaurantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "History entry not found")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.HistoryEntry{}, "id = ?", entry.ID).Error; err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &restaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntityHistoryEntry,
				EntityID:     entry.ID,
				Action:       models.AuditActionDelete,
				Description:  "History day " + entry.Date.Format("2006-01-02") + " deleted",
				Before:       entry,
			})
		})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "delete history entry failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete history entry")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
