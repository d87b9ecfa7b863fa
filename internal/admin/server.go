// Package admin exposes an operator API for inspecting tracked items and
// managing the forbidden flag, alongside probe and metrics endpoints.
package admin

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/reacji-tweeter/internal/health"
	"github.com/p-blackswan/reacji-tweeter/internal/metrics"
	"github.com/p-blackswan/reacji-tweeter/internal/requestid"
	"github.com/p-blackswan/reacji-tweeter/internal/store"
)

// ServerConfig holds configuration for the admin API server.
type ServerConfig struct {
	ListenAddr  string
	Auth        AuthConfig
	CORSOrigins string
}

// Server is the admin API Fiber application.
type Server struct {
	app    *fiber.App
	logger zerolog.Logger
	config ServerConfig
}

// NewServer creates and configures the admin API server.
func NewServer(
	cfg ServerConfig,
	s store.Store,
	checker *health.Checker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	srv := &Server{
		app:    app,
		logger: logger.With().Str("component", "admin").Logger(),
		config: cfg,
	}

	app.Use(recover.New())

	app.Use(func(c *fiber.Ctx) error {
		_, reqID := requestid.New(c.Context())
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, PUT, OPTIONS",
		}))
	}

	app.Use(NewAuthMiddleware(cfg.Auth, srv.logger))

	app.Get("/healthz", adaptor.HTTPHandlerFunc(health.LivenessHandler()))
	app.Get("/readyz", adaptor.HTTPHandlerFunc(checker.ReadinessHandler()))
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	h := &handlers{store: s, logger: srv.logger}
	api := app.Group("/api/v1")
	api.Get("/items/:kind/:id", h.getItem)
	api.Put("/items/:kind/:id/forbidden", h.setForbidden)

	return srv
}

// Listen starts serving. Blocks until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("admin API listening")
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
		logger.Error().Err(err).Str("path", c.Path()).Msg("admin API error")
		return problemResponse(c, code, "internal_error", "Internal Server Error", err.Error())
	}
}

func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(fiber.Map{
		"type":   errType,
		"title":  title,
		"detail": detail,
		"status": status,
	})
}
