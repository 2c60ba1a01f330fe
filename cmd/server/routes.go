package main

import (
	"controlos-backend/internal/admin"
	"controlos-backend/internal/advisor"
	"controlos-backend/internal/audit"
	"controlos-backend/internal/auth"
	"controlos-backend/internal/config"
	"controlos-backend/internal/employee"
	"controlos-backend/internal/forecast"
	"controlos-backend/internal/health"
	"controlos-backend/internal/history"
	"controlos-backend/internal/invoice"
	"controlos-backend/internal/models"
	"controlos-backend/internal/operational"
	"controlos-backend/internal/schedule"
	"controlos-backend/internal/settings"
	"controlos-backend/internal/snapshot"
	"controlos-backend/internal/staffing"

	"github.com/gofiber/fiber/v2"
)

type deps struct {
	checker     *health.Checker
	importer    *history.Importer
	tracker     *snapshot.Tracker
	operational operational.Store
	advisor     *advisor.Client
}

func registerRoutes(app *fiber.App, cfg *config.Config, d deps) {
	app.Get("/health/live", d.checker.LiveHandler())
	app.Get("/health/ready", d.checker.ReadyHandler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	adminRoutes.Post("/restaurants", admin.CreateRestaurantHandler())
	adminRoutes.Get("/restaurants", admin.ListRestaurantsHandler())
	adminRoutes.Get("/restaurants/:id", admin.GetRestaurantHandler())
	adminRoutes.Put("/restaurants/:id", admin.UpdateRestaurantHandler())
	adminRoutes.Delete("/restaurants/:id", admin.DeleteRestaurantHandler())
	adminRoutes.Post("/restaurants/:id/managers", admin.CreateManagerHandler())
	adminRoutes.Get("/restaurants/:id/managers", admin.ListManagersHandler())

	// Settings
	protected.Get("/settings", settings.GetHandler())
	protected.Put("/settings", settings.UpdateHandler())

	// Roster
	protected.Get("/employees", employee.ListHandler())
	protected.Post("/employees", employee.CreateHandler())
	protected.Put("/employees/:id", employee.UpdateHandler())
	protected.Delete("/employees/:id", employee.DeleteHandler())

	// Staffing table
	protected.Get("/staffing-table", staffing.GetTableHandler())
	protected.Put("/staffing-table", staffing.ReplaceTableHandler())
	protected.Get("/staffing/requirement", staffing.RequirementHandler())

	// Sales history and forecast
	protected.Get("/history", history.ListHandler())
	protected.Post("/history/import", history.ImportHandler(d.importer))
	protected.Delete("/history/:id", history.DeleteHandler())
	protected.Post("/forecast/average", forecast.AverageHandler())

	// Daily schedules
	protected.Get("/schedules", schedule.ListHandler())
	protected.Get("/schedules/:date", schedule.GetHandler())
	protected.Post("/schedules/:date/assignments", schedule.AssignHandler())
	protected.Delete("/schedules/:date/assignments", schedule.UnassignHandler())
	protected.Post("/schedules/:date/trainees", schedule.AssignTraineeHandler())
	protected.Delete("/schedules/:date/trainees", schedule.UnassignTraineeHandler())
	protected.Put("/schedules/:date/managers", schedule.SetManagerHandler())
	protected.Put("/schedules/:date/objectives", schedule.SetObjectiveHandler())
	protected.Post("/schedules/:date/forecast", schedule.ApplyForecastHandler())
	protected.Post("/schedules/:date/finalize", schedule.FinalizeHandler())
	protected.Post("/schedules/:date/unlock", schedule.UnlockHandler())
	protected.Get("/schedules/:date/kpi", schedule.KPIHandler())
	protected.Get("/schedules/:date/export", schedule.ExportHandler())
	protected.Post("/schedules/:date/advice", advisor.AdviceHandler(d.advisor))

	// Full snapshot
	protected.Get("/snapshot", snapshot.GetHandler())
	protected.Put("/snapshot", snapshot.PutHandler(d.tracker))
	protected.Get("/snapshot/status", snapshot.StatusHandler(d.tracker))

	// Monthly operational record
	protected.Get("/operational", operational.ListHandler(d.operational))
	protected.Get("/operational/:month", operational.GetHandler(d.operational))
	protected.Put("/operational/:month", operational.PutHandler(d.operational))
	protected.Delete("/operational/:month", operational.DeleteHandler(d.operational))

	// Supplier invoices
	protected.Post("/invoices/parse-pdf", invoice.ParsePDFHandler())
	protected.Post("/invoices/parse-text", invoice.ParseTextHandler())
	protected.Post("/invoices/parse-order-url", invoice.ParseOrderURLHandler(nil))
	protected.Post("/invoices", invoice.CreateHandler())
	protected.Get("/invoices", invoice.ListHandler())
	protected.Get("/invoices/:id/reconciliation", invoice.ReconciliationHandler())
	protected.Delete("/invoices/:id", invoice.DeleteHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())
}
