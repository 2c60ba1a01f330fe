package health

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

type HealthStatus struct {
	Status  Status                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// PingFunc reports whether one dependency is reachable.
type PingFunc func(ctx context.Context) error

type Checker struct {
	pings   map[string]PingFunc
	version string
	timeout time.Duration
}

func NewChecker(version string, pings map[string]PingFunc) *Checker {
	return &Checker{pings: pings, version: version, timeout: 5 * time.Second}
}

// Check pings every dependency concurrently. One failure marks the service unhealthy
// but the remaining checks still run to completion.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status := &HealthStatus{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  make(map[string]CheckResult, len(c.pings)),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for name, ping := range c.pings {
		g.Go(func() error {
			start := time.Now()
			err := ping(checkCtx)

			res := CheckResult{Status: StatusHealthy, LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				res = CheckResult{Status: StatusUnhealthy, Error: err.Error()}
			}

			mu.Lock()
			defer mu.Unlock()
			status.Checks[name] = res
			if err != nil {
				status.Status = StatusUnhealthy
			}
			return nil
		})
	}
	_ = g.Wait()

	return status
}

// GET /health/live
func (c *Checker) LiveHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	}
}

// GET /health/ready
func (c *Checker) ReadyHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		status := c.Check(ctx.UserContext())

		httpStatus := fiber.StatusOK
		if status.Status != StatusHealthy {
			httpStatus = fiber.StatusServiceUnavailable
		}
		return ctx.Status(httpStatus).JSON(status)
	}
}
