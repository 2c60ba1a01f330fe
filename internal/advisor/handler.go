package advisor

import (
	"errors"

	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"
	"controlos-backend/internal/schedule"
	"controlos-backend/internal/settings"
	"controlos-backend/internal/staffing"

	"github.com/gofiber/fiber/v2"
)

type AdviceResponse struct {
	KPI         schedule.KPI `json:"kpi"`
	Suggestions []Suggestion `json:"suggestions"`
	Discarded   int          `json:"discarded"`
	Text        string       `json:"text"`
}

// POST /api/schedules/:date/advice?shift=midday
func AdviceHandler(client *Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !client.Enabled() {
			return fiber.NewError(fiber.StatusServiceUnavailable, ErrDisabled.Error())
		}

		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		date, err := schedule.ParseDate(c.Params("date"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		shift, ok := models.ParseShiftType(c.Query("shift"))
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "shift must be one of opening, midday, closing, overnight")
		}

		s, err := schedule.Load(database.DB, restaurantID, date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load schedule")
		}
		table, err := staffing.LoadTable(database.DB, restaurantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load staffing table")
		}
		cfg, err := settings.Load(database.DB, restaurantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load settings")
		}

		var employees []models.Employee
		if err := database.DB.Where("restaurant_id = ? AND active = ?", restaurantID, true).Order("name").Find(&employees).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load employees")
		}
		roster := make([]RosterEntry, 0, len(employees))
		for _, e := range employees {
			roster = append(roster, RosterEntry{ID: e.ID, Name: e.Name, Position: e.Position, IsManager: e.IsManager, IsTrainee: e.IsTrainee})
		}

		kpi := schedule.ComputeKPI(s, shift, table)
		stations := cfg.AllStations()
		req := Request{
			Date:                date.Format("2006-01-02"),
			Shift:               shift,
			Sales:               kpi.Sales,
			Requirement:         kpi.Requirement,
			RecommendedStations: kpi.RecommendedStations,
			Stations:            stations,
			StaffingTable:       table,
			Projections:         s.Projections.Data,
			Roster:              roster,
			Assigned:            *s.Shifts.Data.At(shift),
			Trainees:            *s.Trainees.Data.At(shift),
		}

		ans, err := client.Suggest(c.UserContext(), req)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				logger.WarnLog(c.UserContext(), "advisor call failed: %v", err)
				return fiber.NewError(fiber.StatusBadGateway, ErrUnavailable.Error())
			}
			logger.ErrorLog(c.UserContext(), "advisor request failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not ask advisor")
		}

		kept, discarded := Filter(ans, roster, stations)
		return c.JSON(AdviceResponse{
			KPI:         kpi,
			Suggestions: kept,
			Discarded:   discarded,
			Text:        ans.Text,
		})
	}
}
