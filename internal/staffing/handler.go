package staffing

import (
	"errors"
	"strconv"

	"controlos-backend/internal/audit"
	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TableEntryRequest struct {
	MinSales     float64 `json:"min_sales"`
	MaxSales     float64 `json:"max_sales"`
	StaffCount   int     `json:"staff_count"`
	StationLabel string  `json:"station_label"`
}

type ReplaceTableRequest struct {
	Entries []TableEntryRequest `json:"entries"`
}

type RequirementResponse struct {
	Sales               float64  `json:"sales"`
	Count               int      `json:"count"`
	Label               string   `json:"label"`
	RecommendedStations []string `json:"recommended_stations"`
}

// LoadTable returns the restaurant's staffing table in table order.
func LoadTable(db *gorm.DB, restaurantID uint) ([]models.StaffingTableEntry, error) {
	var table []models.StaffingTableEntry
	err := db.Where("restaurant_id = ?", restaurantID).Order("position asc").Find(&table).Error
	return table, err
}

// ReplaceTable swaps the whole table inside tx. Positions follow slice order.
func ReplaceTable(tx *gorm.DB, restaurantID uint, table []models.StaffingTableEntry) error {
	if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&models.StaffingTableEntry{}).Error; err != nil {
		return err
	}
	if len(table) == 0 {
		return nil
	}
	for i := range table {
		table[i].ID = 0
		table[i].RestaurantID = restaurantID
		table[i].Position = i
	}
	return tx.Create(&table).Error
}

// GET /api/staffing-table
func GetTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		table, err := LoadTable(database.DB, restaurantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load staffing table")
		}
		return c.JSON(table)
	}
}

// PUT /api/staffing-table
func ReplaceTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentActor(c, audit.UserName)
		if err != nil {
			return err
		}

		var body ReplaceTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}

		table := make([]models.StaffingTableEntry, 0, len(body.Entries))
		for _, e := range body.Entries {
			table = append(table, models.StaffingTableEntry{
				MinSales:     e.MinSales,
				MaxSales:     e.MaxSales,
				StaffCount:   e.StaffCount,
				StationLabel: e.StationLabel,
			})
		}

		if err := Validate(table); err != nil {
			var entryErr *EntryError
			if errors.As(err, &entryErr) {
				return fiber.NewError(fiber.StatusBadRequest, entryErr.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var before []models.StaffingTableEntry
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			if before, err = LoadTable(tx, restaurantID); err != nil {
				return err
			}
			if err := ReplaceTable(tx, restaurantID, table); err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &restaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntityStaffingTable,
				EntityID:     restaurantID,
				Action:       models.AuditActionUpdate,
				Description:  "Staffing table replaced (" + strconv.Itoa(len(table)) + " entries)",
				Before:       before,
				After:        table,
			})
		})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "staffing table replace failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not save staffing table")
		}

		return c.JSON(table)
	}
}

// GET /api/staffing/requirement?sales=1234.5
func RequirementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}

		sales, err := strconv.ParseFloat(c.Query("sales"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "sales must be a number")
		}

		table, err := LoadTable(database.DB, restaurantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load staffing table")
		}

		req := Resolve(sales, table)
		return c.JSON(RequirementResponse{
			Sales:               sales,
			Count:               req.Count,
			Label:               req.Label,
			RecommendedStations: RecommendedStationList(table, req),
		})
	}
}
