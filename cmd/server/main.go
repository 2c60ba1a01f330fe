package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"controlos-backend/internal/advisor"
	"controlos-backend/internal/config"
	"controlos-backend/internal/database"
	"controlos-backend/internal/health"
	"controlos-backend/internal/history"
	"controlos-backend/internal/logger"
	"controlos-backend/internal/middleware"
	"controlos-backend/internal/operational"
	"controlos-backend/internal/snapshot"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.FatalLog(ctx, "config: %v", err)
	}
	logger.InitLogging(cfg.LogLevel, cfg.LogFilePath)
	for _, w := range cfg.Warnings() {
		logger.WarnLog(ctx, "%s", w)
	}

	if err := database.Init(cfg); err != nil {
		logger.FatalLog(ctx, "database: %v", err)
	}

	redisClient, err := database.NewRedis(ctx, cfg)
	if err != nil {
		// operational records answer 503 until redis is reachable
		logger.WarnLog(ctx, "%v", err)
	}
	defer redisClient.Close()

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.MaxUploadMB * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID(), middleware.RequestLogger())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: middleware.HeaderRequestID + ", Content-Disposition",
	}))

	checker := health.NewChecker(version, map[string]health.PingFunc{
		"postgres": database.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	registerRoutes(app, cfg, deps{
		checker:     checker,
		importer:    history.NewImporter(database.DB),
		tracker:     snapshot.NewTracker(),
		operational: operational.NewRedisStore(redisClient),
		advisor:     advisor.New(cfg),
	})

	go func() {
		logger.InfoLog(ctx, "server listening on :%s", cfg.HTTPPort)
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			logger.ErrorLog(ctx, "server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.InfoLog(ctx, "shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.ErrorLog(ctx, "shutdown failed: %v", err)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	logger.ErrorLog(c.UserContext(), "unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error",
	})
}
