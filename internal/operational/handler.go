package operational

import (
	"errors"

	"controlos-backend/internal/auth"
	"controlos-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type RecordResponse struct {
	*Record
	Summary Summary `json:"summary"`
}

func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidMonth), errors.Is(err, ErrInvalidDay):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		logger.ErrorLog(c.UserContext(), "operational store failed: %v", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "Operational data is unavailable")
	}
}

// GET /api/operational
func ListHandler(store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		months, err := store.ListMonths(c.UserContext(), restaurantID)
		if err != nil {
			return storeError(c, err)
		}
		if months == nil {
			months = []string{}
		}
		return c.JSON(fiber.Map{"months": months})
	}
}

// GET /api/operational/:month
func GetHandler(store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		rec, err := store.Get(c.UserContext(), restaurantID, c.Params("month"))
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(RecordResponse{Record: rec, Summary: rec.Summarize()})
	}
}

// PUT /api/operational/:month
func PutHandler(store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		var rec Record
		if err := c.BodyParser(&rec); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		// the path decides which month is written
		rec.Month = c.Params("month")
		if rec.Days == nil {
			rec.Days = map[string]DayFigures{}
		}
		if err := rec.Validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := store.Put(c.UserContext(), restaurantID, &rec); err != nil {
			return storeError(c, err)
		}
		return c.JSON(RecordResponse{Record: &rec, Summary: rec.Summarize()})
	}
}

// DELETE /api/operational/:month
func DeleteHandler(store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		if err := store.Delete(c.UserContext(), restaurantID, c.Params("month")); err != nil {
			return storeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
