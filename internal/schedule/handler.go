package schedule

import (
	"context"
	"errors"
	"time"

	"controlos-backend/internal/audit"
	"controlos-backend/internal/auth"
	"controlos-backend/internal/database"
	"controlos-backend/internal/forecast"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/models"
	"controlos-backend/internal/settings"
	"controlos-backend/internal/staffing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ScheduleResponse struct {
	*models.DailySchedule
	Status models.ScheduleStatus `json:"status"`
}

type MutationResponse struct {
	Changed  bool             `json:"changed"`
	Schedule ScheduleResponse `json:"schedule"`
}

type AssignmentRequest struct {
	Shift      string `json:"shift"`
	Station    string `json:"station"`
	EmployeeID uint   `json:"employee_id"`
}

type ManagerRequest struct {
	Shift      string `json:"shift"`
	EmployeeID *uint  `json:"employee_id"`
}

type ObjectiveRequest struct {
	Shift     string `json:"shift"`
	Objective string `json:"objective"`
}

type ForecastRequest struct {
	HistoryIDs []uint   `json:"history_ids"`
	Timeslots  []string `json:"timeslots"`
}

func respond(s *models.DailySchedule) ScheduleResponse {
	return ScheduleResponse{DailySchedule: s, Status: s.Status()}
}

func parseShift(raw string) (models.ShiftType, error) {
	shift, ok := models.ParseShiftType(raw)
	if !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "shift must be one of opening, midday, closing, overnight")
	}
	return shift, nil
}

func scheduleScope(c *fiber.Ctx) (uint, time.Time, error) {
	restaurantID, err := auth.RestaurantID(c)
	if err != nil {
		return 0, time.Time{}, err
	}
	date, err := ParseDate(c.Params("date"))
	if err != nil {
		return 0, time.Time{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return restaurantID, date, nil
}

// mutation edits s and reports whether anything changed.
type mutation func(tx *gorm.DB, s *models.DailySchedule) (bool, error)

// lockedRunner applies fn to the row-locked schedule of one date in a single
// transaction and persists it only when fn reports a change.
type lockedRunner func(ctx context.Context, restaurantID uint, date time.Time, fn mutation) (*models.DailySchedule, bool, error)

var runLocked lockedRunner = runLockedDB

func runLockedDB(ctx context.Context, restaurantID uint, date time.Time, fn mutation) (*models.DailySchedule, bool, error) {
	var (
		s       *models.DailySchedule
		changed bool
	)
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if s, err = LoadForUpdate(tx, restaurantID, date); err != nil {
			return err
		}
		if changed, err = fn(tx, s); err != nil || !changed {
			return err
		}
		return Save(tx, s)
	})
	return s, changed, err
}

// mutate answers every schedule edit. A no-op, including any edit of a
// finalized schedule, is a 200 with changed:false.
func mutate(c *fiber.Ctx, fn mutation) error {
	restaurantID, date, err := scheduleScope(c)
	if err != nil {
		return err
	}

	s, changed, err := runLocked(c.UserContext(), restaurantID, date, fn)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe
		}
		logger.ErrorLog(c.UserContext(), "schedule update failed: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not save schedule")
	}

	return c.JSON(MutationResponse{Changed: changed, Schedule: respond(s)})
}

func checkEmployee(tx *gorm.DB, restaurantID, employeeID uint) error {
	var count int64
	if err := tx.Model(&models.Employee{}).
		Where("id = ? AND restaurant_id = ? AND active = ?", employeeID, restaurantID, true).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Employee not found in this restaurant")
	}
	return nil
}

func checkStation(tx *gorm.DB, restaurantID uint, station string) error {
	s, err := settings.Load(tx, restaurantID)
	if err != nil {
		return err
	}
	for _, st := range s.AllStations() {
		if st.ID == station {
			return nil
		}
	}
	return fiber.NewError(fiber.StatusBadRequest, "Unknown station")
}

// GET /api/schedules?from=2024-03-01&to=2024-03-31
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, err := auth.RestaurantID(c)
		if err != nil {
			return err
		}
		from, err := ParseDate(c.Query("from"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from: "+err.Error())
		}
		to, err := ParseDate(c.Query("to"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to: "+err.Error())
		}

		list, err := List(database.DB, restaurantID, from, to)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list schedules")
		}
		resp := make([]ScheduleResponse, 0, len(list))
		for i := range list {
			normalize(&list[i])
			resp = append(resp, respond(&list[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/schedules/:date
func GetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, date, err := scheduleScope(c)
		if err != nil {
			return err
		}
		s, err := Load(database.DB, restaurantID, date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load schedule")
		}
		return c.JSON(respond(s))
	}
}

func assignmentHandler(trainee, remove bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AssignmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		shift, err := parseShift(body.Shift)
		if err != nil {
			return err
		}
		if body.Station == "" || body.EmployeeID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "station and employee_id are required")
		}

		return mutate(c, func(tx *gorm.DB, s *models.DailySchedule) (bool, error) {
			if s.IsLocked {
				return false, nil
			}
			if remove {
				if trainee {
					return UnassignTrainee(s, shift, body.Station, body.EmployeeID), nil
				}
				return UnassignStaff(s, shift, body.Station, body.EmployeeID), nil
			}

			if err := checkEmployee(tx, s.RestaurantID, body.EmployeeID); err != nil {
				return false, err
			}
			if err := checkStation(tx, s.RestaurantID, body.Station); err != nil {
				return false, err
			}
			if trainee {
				return AssignTrainee(s, shift, body.Station, body.EmployeeID), nil
			}
			return AssignStaff(s, shift, body.Station, body.EmployeeID), nil
		})
	}
}

// POST /api/schedules/:date/assignments
func AssignHandler() fiber.Handler { return assignmentHandler(false, false) }

// DELETE /api/schedules/:date/assignments
func UnassignHandler() fiber.Handler { return assignmentHandler(false, true) }

// POST /api/schedules/:date/trainees
func AssignTraineeHandler() fiber.Handler { return assignmentHandler(true, false) }

// DELETE /api/schedules/:date/trainees
func UnassignTraineeHandler() fiber.Handler { return assignmentHandler(true, true) }

// PUT /api/schedules/:date/managers
func SetManagerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ManagerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		shift, err := parseShift(body.Shift)
		if err != nil {
			return err
		}

		return mutate(c, func(tx *gorm.DB, s *models.DailySchedule) (bool, error) {
			if s.IsLocked {
				return false, nil
			}
			if body.EmployeeID != nil {
				if err := checkEmployee(tx, s.RestaurantID, *body.EmployeeID); err != nil {
					return false, err
				}
			}
			return SetManager(s, shift, body.EmployeeID), nil
		})
	}
}

// PUT /api/schedules/:date/objectives
func SetObjectiveHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ObjectiveRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		shift, err := parseShift(body.Shift)
		if err != nil {
			return err
		}
		if len(body.Objective) > 500 {
			return fiber.NewError(fiber.StatusBadRequest, "objective is too long")
		}

		return mutate(c, func(_ *gorm.DB, s *models.DailySchedule) (bool, error) {
			return SetObjective(s, shift, body.Objective), nil
		})
	}
}

// POST /api/schedules/:date/forecast
func ApplyForecastHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ForecastRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
		}
		if len(body.HistoryIDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "history_ids is required")
		}

		return mutate(c, func(tx *gorm.DB, s *models.DailySchedule) (bool, error) {
			if s.IsLocked {
				return false, nil
			}
			cfg, err := settings.Load(tx, s.RestaurantID)
			if err != nil {
				return false, err
			}
			keys := body.Timeslots
			if len(keys) == 0 {
				keys = cfg.Timeslots.Data
			}
			avg, keys, err := forecast.Compute(tx, s.RestaurantID, body.HistoryIDs, keys)
			if err != nil {
				return false, err
			}
			if avg == nil {
				return false, fiber.NewError(fiber.StatusBadRequest, "None of the selected history entries exist")
			}
			projections := forecast.Project(avg, keys)
			return ApplyForecast(s, projections, forecast.ShiftSales(projections, cfg.ShiftWindows.Data)), nil
		})
	}
}

func transitionHandler(action string, fn func(s *models.DailySchedule) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c, audit.UserName)
		if err != nil {
			return err
		}

		return mutate(c, func(tx *gorm.DB, s *models.DailySchedule) (bool, error) {
			if !fn(s) {
				return false, nil
			}
			return true, audit.WriteLogTx(tx, audit.LogOptions{
				RestaurantID: &s.RestaurantID,
				UserID:       actor.UserID,
				UserName:     actor.Name,
				EntityType:   audit.EntitySchedule,
				EntityID:     s.ID,
				Action:       models.AuditActionUpdate,
				Description:  "Schedule " + s.Date.Format("2006-01-02") + " " + action,
			})
		})
	}
}

// POST /api/schedules/:date/finalize
func FinalizeHandler() fiber.Handler {
	return transitionHandler("finalized", func(s *models.DailySchedule) bool {
		return Finalize(s, time.Now())
	})
}

// POST /api/schedules/:date/unlock
func UnlockHandler() fiber.Handler {
	return transitionHandler("unlocked", Unlock)
}

// GET /api/schedules/:date/kpi?shift=midday
func KPIHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, date, err := scheduleScope(c)
		if err != nil {
			return err
		}

		shifts := models.ShiftTypes
		if raw := c.Query("shift"); raw != "" {
			shift, err := parseShift(raw)
			if err != nil {
				return err
			}
			shifts = []models.ShiftType{shift}
		}

		s, err := Load(database.DB, restaurantID, date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load schedule")
		}
		table, err := staffing.LoadTable(database.DB, restaurantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load staffing table")
		}

		out := make([]KPI, 0, len(shifts))
		for _, shift := range shifts {
			out = append(out, ComputeKPI(s, shift, table))
		}
		return c.JSON(out)
	}
}

// GET /api/schedules/:date/export
func ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		restaurantID, date, err := scheduleScope(c)
		if err != nil {
			return err
		}

		s, err := Load(database.DB, restaurantID, date)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load schedule")
		}
		cfg, err := settings.Load(database.DB, restaurantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load settings")
		}
		table, err := staffing.LoadTable(database.DB, restaurantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load staffing table")
		}

		var employees []models.Employee
		if err := database.DB.Select("id", "name").Where("restaurant_id = ?", restaurantID).Find(&employees).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load employees")
		}
		names := make(map[uint]string, len(employees))
		for _, e := range employees {
			names[e.ID] = e.Name
		}

		f, err := BuildWorkbook(ExportInput{Schedule: s, Stations: cfg.AllStations(), Names: names, Table: table})
		if err != nil {
			logger.ErrorLog(c.UserContext(), "schedule export failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build export")
		}
		defer func() { _ = f.Close() }()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build export")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="schedule-`+date.Format("2006-01-02")+`.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
