package auth

import (
	"fmt"

	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RestaurantID resolves the restaurant in scope for the request.
// Managers are bound to the restaurant in their token; super admins pass ?restaurant_id=.
func RestaurantID(c *fiber.Ctx) (uint, error) {
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Role missing from session")
	}

	if role == models.RoleRestaurantManager {
		rPtr, ok := c.Locals(CtxRestaurantIDKey).(*uint)
		if !ok || rPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Restaurant missing from session")
		}
		return *rPtr, nil
	}

	ridStr := c.Query("restaurant_id")
	if ridStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "restaurant_id is required")
	}
	var rid uint
	if _, err := fmt.Sscan(ridStr, &rid); err != nil || rid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "restaurant_id is invalid")
	}
	return rid, nil
}

// Actor identifies who is making the request, for audit logs.
type Actor struct {
	UserID       uint
	Name         string
	RestaurantID *uint
}

// CurrentActor loads the requesting user through lookupName.
func CurrentActor(c *fiber.Ctx, lookupName func(userID uint) (string, error)) (Actor, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "User missing from session")
	}

	name, err := lookupName(userID)
	if err != nil {
		return Actor{}, fiber.NewError(fiber.StatusInternalServerError, "User not found")
	}

	var restaurantID *uint
	if rPtr, ok := c.Locals(CtxRestaurantIDKey).(*uint); ok && rPtr != nil {
		restaurantID = rPtr
	}

	return Actor{UserID: userID, Name: name, RestaurantID: restaurantID}, nil
}
