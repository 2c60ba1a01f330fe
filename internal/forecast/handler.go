package forecast

import (
	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/models"
	"controlos-backend/internal/settings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AverageRequest struct {
	HistoryIDs []uint   `json:"history_ids"`
	Timeslots  []string `json:"timeslots"`
}

type AverageResponse struct {
	Average     *Forecast                 `json:"average"`
	Projections []models.HourlyProjection `json:"projections"`
}

// Compute loads the selected history entries and averages them over keys.
// Empty keys fall back to the restaurant's configured timeslots.
func Compute(db *gorm.DB, restaurantID uint, historyIDs []uint, keys []string) (*Forecast, []string, error) {
	if len(keys) == 0 {
		s, err := settings.Load(db, restaurantID)
		if err != nil {
			return nil, nil, err
		}
		keys = s.Timeslots.Data
	}

	if len(historyIDs) == 0 {
		return nil, keys, nil
	}

	var selected []models.HistoryEntry
	if err := db.Where("restaurant_id = ? AND id IN ?", restaurantID, historyIDs).
		Order("date asc").Find(&selected).Error; err != nil {
		return nil, nil, err
	}
	return Average(selected, keys), keys, nil
}

// POST /api/forecast/average
func AverageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		var body AverageRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}

		avg, keys, err := Compute(database.DB, restaurantID, body.HistoryIDs, body.Timeslots)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not compute forecast")
		}

		return c.JSON(AverageResponse{
			Average:     avg,
			Projections: Project(avg, keys),
		})
	}
}
