package employee

import (
	"errors"
	"fmt"
	"strings"

	"controlos-backend/internal/audit"
	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EmployeeRequest struct {
	Name      *string `json:"name"`
	Position  *string `json:"position"`
	Phone     *string `json:"phone"`
	IsManager *bool   `json:"is_manager"`
	IsTrainee *bool   `json:"is_trainee"`
	Active    *bool   `json:"active"`
}

var ErrNameRequired = errors.New("employee name is required")

// Apply copies the fields set in req onto e.
func (req EmployeeRequest) Apply(e *models.Employee) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return ErrNameRequired
		}
		e.Name = name
	}
	if req.Position != nil {
		e.Position = strings.TrimSpace(*req.Position)
	}
	if req.Phone != nil {
		e.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.IsManager != nil {
		e.IsManager = *req.IsManager
	}
	if req.IsTrainee != nil {
		e.IsTrainee = *req.IsTrainee
	}
	if req.Active != nil {
		e.Active = *req.Active
	}
	return nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func find(restaurantID, id uint) (*models.Employee, error) {
	var e models.Employee
	if err := database.DB.First(&e, "id = ? AND restaurant_id = ?", id, restaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Employee not found")
		}
		return nil, err
	}
	return &e, nil
}

// GET /api/employees?active=true&trainee=false
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("restaurant_id = ?", restaurantID)
		switch c.Query("active") {
		case "true":
			dbq = dbq.Where("active = ?", true)
		case "false":
			dbq = dbq.Where("active = ?", false)
		}
		switch c.Query("trainee") {
		case "true":
			dbq = dbq.Where("is_trainee = ?", true)
		case "false":
			dbq = dbq.Where("is_trainee = ?", false)
		}

		var employees []models.Employee
		if err := dbq.Order("name").Find(&employees).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list employees")
		}
		return c.JSON(employees)
	}
}

// POST /api/employees
func CreateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c, audit.UserName)
		if err != nil {
			return err
		}

		var req EmployeeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		if req.Name == nil {
			return fiber.NewError(fiber.StatusBadRequest, ErrNameRequired.Error())
		}

		e := models.Employee{RestaurantID: restaurantID, Active: true}
		if err := req.Apply(&e); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&e).Error; err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &restaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntityEmployee,
				EntityID:     e.ID,
				Action:       models.AuditActionCreate,
				Description:  "Employee " + e.Name + " added",
				After:        e,
			})
		})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "create employee failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create employee")
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	}
}

// PUT /api/employees/:id
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
		id, err := parseID(c)
		if err != nil {
			return err
		}

		e, err := find(restaurantID, id)
		if err != nil {
			return err
		}
		before := *e

		var req EmployeeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		if err := req.Apply(e); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(e).Error; err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &restaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntityEmployee,
				EntityID:     e.ID,
				Action:       models.AuditActionUpdate,
				Description:  "Employee " + e.Name + " updated",
				Before:       before,
				After:        e,
			})
		})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "update employee failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update employee")
		}
		return c.JSON(e)
	}
}

// DELETE /api/employees/:id
// Schedules keep the ID; the export prints it as #id.
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
		id, err := parseID(c)
		if err != nil {
			return err
		}

		e, err := find(restaurantID, id)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.Employee{}, "id = ?", e.ID).Error; err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &restaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntityEmployee,
				EntityID:     e.ID,
				Action:       models.AuditActionDelete,
				Description:  "Employee " + e.Name + " removed",
				Before:       e,
			})
		})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "delete employee failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete employee")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
