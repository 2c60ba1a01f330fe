package settings

import (
	"controlos-backend/internal/audit"
	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Response struct {
	RestaurantID uint `json:"restaurant_id"`
	Document
	Stations []models.Station `json:"stations"`
}

func toResponse(s models.AppSettings) Response {
	return Response{
		RestaurantID: s.RestaurantID,
		Document:     FromModel(s),
		Stations:     s.AllStations(),
	}
}

// GET /api/settings
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		s, err := Load(database.DB, restaurantID)
		if err != nil {
			logger.ErrorLog(c.UserContext(), "load settings failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load settings")
		}
		return c.JSON(toResponse(s))
	}
}

// PUT /api/settings
func UpdateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c, audit.UserName)
		if err != nil {
			return err
		}

		var doc Document
		if err := c.BodyParser(&doc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		if err := doc.Validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var saved models.AppSettings
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			before, err := Load(tx, restaurantID)
			if err != nil {
				return err
			}
			if saved, err = Save(tx, restaurantID, doc); err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &restaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntitySettings,
				EntityID:     restaurantID,
				Action:       models.AuditActionUpdate,
				Description:  "Settings updated",
				Before:       FromModel(before),
				After:        doc,
			})
		})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "save settings failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save settings")
		}

		return c.JSON(toResponse(saved))
	}
}
