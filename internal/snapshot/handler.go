package snapshot

import (
	"errors"

	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// GET /api/snapshot
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		snap, err := Load(c.UserContext(), database.DB, restaurantID)
		if errors.Is(err, ErrSnapshotNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Restaurant not found")
		}
		if err != nil {
			logger.ErrorLog(c.UserContext(), "snapshot load failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load snapshot")
		}
		return c.JSON(snap)
	}
}

// PUT /api/snapshot
func PutHandler(tracker *Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		var snap Snapshot
		if err := c.BodyParser(&snap); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		if err := snap.Validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if !tracker.Begin(restaurantID) {
			return fiber.NewError(fiber.StatusConflict, "A save is already in progress")
		}

		err = tracker.Track(restaurantID, func() error {
			return Upsert(c.UserContext(), database.DB, restaurantID, &snap)
		})

		switch {
		case err == nil:
			return c.JSON(tracker.Get(restaurantID))
		case errors.Is(err, ErrSnapshotNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Restaurant not found")
		case errors.Is(err, ErrForeignEmployee):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			logger.ErrorLog(c.UserContext(), "snapshot save failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save snapshot")
		}
	}
}

// GET /api/snapshot/status
func StatusHandler(tracker *Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		return c.JSON(tracker.Get(restaurantID))
	}
}
