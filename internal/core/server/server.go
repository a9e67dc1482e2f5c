package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/config"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/metrics"
	"storefront-orders/internal/core/respond"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "storefront-orders/docs/swagger"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	// cfg holds the application configuration.
	cfg *config.AppConfig
}

// New creates a new Server with request ids, access logging, metrics, identity resolution
// and the JSON error envelope installed.
func New(cfg *config.AppConfig, checks ...HealthCheck) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "storefront-orders",
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Header: "X-Ray-ID",
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
		Fields: []string{"requestId", "status", "method", "path", "latency", "ip"},
	}))

	app.Use(metrics.Middleware())
	app.Use(auth.Middleware(cfg.Auth.JWTSecret))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", healthHandler(checks))

	return &Server{
		App: app,
		cfg: cfg,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.App.ShutdownWithTimeout(timeout)
}

func healthHandler(checks []HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check(ctx); err != nil {
				logger.Get().Warn("Health check failed", zap.Error(err))
				return respond.Error(c, fiber.StatusServiceUnavailable, "unhealthy")
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// errorHandler renders errors that escape handlers (unknown routes, body limits, panics).
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		logger.Get().Error("Unhandled error",
			zap.String("path", c.Path()),
			zap.String("ray_id", respond.RayID(c)),
			zap.Error(err),
		)
	}

	return respond.Error(c, status, message)
}
