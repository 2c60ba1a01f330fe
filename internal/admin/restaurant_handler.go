package admin

import (
	"errors"
	"strings"

	"controlos-backend/internal/database"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RestaurantResponse struct {
	ID        uint   `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type CreateRestaurantRequest struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"`
}

type UpdateRestaurantRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

type CreateManagerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ManagerResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	RestaurantID *uint  `json:"restaurant_id"`
	CreatedAt    string `json:"created_at"`
}

const minPasswordLength = 8

func toRestaurantResponse(r models.Restaurant) RestaurantResponse {
	return RestaurantResponse{
		ID:        r.ID,
		Code:      r.Code,
		Name:      r.Name,
		Address:   r.Address,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func findRestaurant(id string) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := database.DB.First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Restaurant not found")
		}
		return nil, err
	}
	return &r, nil
}

// ----------------------------------------
// RESTAURANT CRUD
// ----------------------------------------

func CreateRestaurantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRestaurantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Code = strings.ToUpper(strings.TrimSpace(body.Code))
		if body.Name == "" || body.Code == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Restaurant code and name are required")
		}

		var exist models.Restaurant
		if err := database.DB.Where("code = ? OR name = ?", body.Code, body.Name).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "A restaurant with this code or name already exists")
		}

		r := models.Restaurant{
			Code:    body.Code,
			Name:    body.Name,
			Address: strings.TrimSpace(body.Address),
		}
		if body.Phone != nil {
			r.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&r).Error; err != nil {
			logger.ErrorLog(c.UserContext(), "create restaurant failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create restaurant")
		}

		return c.Status(fiber.StatusCreated).JSON(toRestaurantResponse(r))
	}
}

func ListRestaurantsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var restaurants []models.Restaurant
		if err := database.DB.Order("name").Find(&restaurants).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list restaurants")
		}

		res := make([]RestaurantResponse, 0, len(restaurants))
		for _, r := range restaurants {
			res = append(res, toRestaurantResponse(r))
		}
		return c.JSON(res)
	}
}

func GetRestaurantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := findRestaurant(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(toRestaurantResponse(*r))
	}
}

func UpdateRestaurantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := findRestaurant(c.Params("id"))
		if err != nil {
			return err
		}

		var body UpdateRestaurantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Restaurant name cannot be empty")
			}
			r.Name = name
		}
		if body.Address != nil {
			r.Address = strings.TrimSpace(*body.Address)
		}
		if body.Phone != nil {
			r.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Save(r).Error; err != nil {
			logger.ErrorLog(c.UserContext(), "update restaurant failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update restaurant")
		}
		return c.JSON(toRestaurantResponse(*r))
	}
}

// DeleteRestaurantHandler refuses while managers are still attached, so nobody is left
// holding a token for a restaurant that no longer exists.
func DeleteRestaurantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := findRestaurant(c.Params("id"))
		if err != nil {
			return err
		}

		var users int64
		if err := database.DB.Model(&models.User{}).Where("restaurant_id = ?", r.ID).Count(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete restaurant")
		}
		if users > 0 {
			return fiber.NewError(fiber.StatusConflict, "Remove the restaurant's managers first")
		}

		if err := database.DB.Delete(&models.Restaurant{}, "id = ?", r.ID).Error; err != nil {
			logger.ErrorLog(c.UserContext(), "delete restaurant failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete restaurant")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// RESTAURANT MANAGERS
// POST /api/admin/restaurants/:id/managers
// GET  /api/admin/restaurants/:id/managers
// ----------------------------------------

func CreateManagerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := findRestaurant(c.Params("id"))
		if err != nil {
			return err
		}

		var body CreateManagerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name, email and password are required")
		}
		if len(body.Password) < minPasswordLength {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 8 characters")
		}

		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Email is already registered")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create manager")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleRestaurantManager,
			RestaurantID: &r.ID,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			logger.ErrorLog(c.UserContext(), "create manager failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create manager")
		}

		return c.Status(fiber.StatusCreated).JSON(ManagerResponse{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         string(user.Role),
			RestaurantID: user.RestaurantID,
			CreatedAt:    user.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

func ListManagersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.
			Where("restaurant_id = ? AND role = ?", c.Params("id"), models.RoleRestaurantManager).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list managers")
		}

		res := make([]ManagerResponse, 0, len(users))
		for _, u := range users {
			res = append(res, ManagerResponse{
				ID:           u.ID,
				Name:         u.Name,
				Email:        u.Email,
				Role:         string(u.Role),
				RestaurantID: u.RestaurantID,
				CreatedAt:    u.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
