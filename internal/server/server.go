package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_bridge/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app  *fiber.App
	deps routes.Deps
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(deps routes.Deps) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      deps.Cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, deps: deps}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.deps.Cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
