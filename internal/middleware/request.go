package middleware

import (
	"time"

	"controlos-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// RequestID reuses a valid incoming X-Request-ID or issues a new one, and puts a
// logger carrying it on the request context.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Locals("request_id", id)

		c.SetUserContext(logger.WithLogger(c.UserContext(), map[string]interface{}{
			"request_id": id,
		}))
		return c.Next()
	}
}

// RequestLogger writes one line per request once the handler chain has finished.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the error handler has not run yet
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		ctx := c.UserContext()
		latency := time.Since(start).Milliseconds()
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.ErrorLog(ctx, "%s %s %d %dms", c.Method(), c.Path(), status, latency)
		case status >= fiber.StatusBadRequest:
			logger.WarnLog(ctx, "%s %s %d %dms", c.Method(), c.Path(), status, latency)
		default:
			logger.InfoLog(ctx, "%s %s %d %dms", c.Method(), c.Path(), status, latency)
		}
		return err
	}
}
