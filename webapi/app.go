// Package webapi exposes the withdrawal core over HTTP: the member-facing
// lifecycle endpoints and the operator-facing limit configuration surface.
package webapi

import (
	"log/slog"
	"time"

	"github.com/amirasaad/exchange/pkg/repository"
	withdrawalsvc "github.com/amirasaad/exchange/pkg/service/withdrawal"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Deps collects what the HTTP surface needs.
type Deps struct {
	Withdrawals *withdrawalsvc.Service
	UoW         repository.UnitOfWork
	Logger      *slog.Logger
	RateMax     int
	RateWindow  time.Duration
}

// NewApp builds the fiber application with all routes and middleware.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	if deps.RateMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.RateMax,
			Expiration: deps.RateWindow,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
			},
		}))
	}
	app.Use(recover.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	WithdrawRoutes(app, deps.Withdrawals, deps.Logger)
	LimitRoutes(app, deps.UoW, deps.Logger)

	return app
}
