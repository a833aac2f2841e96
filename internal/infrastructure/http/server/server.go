package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/config"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/http/handlers"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type Server struct {
	server             *http.Server
	logger             *logger.Logger
	healthHandler      *handlers.HealthHandler
	cartHandler        *handlers.CartHandler
	checkoutHandler    *handlers.CheckoutHandler
	catalogHandler     *handlers.CatalogHandler
	applicationHandler *handlers.ApplicationHandler
	adminHandler       *handlers.AdminHandler
}

// Handlers carries the pre-wired HTTP handlers into the server. Wiring lives
// in main so the sync bus and schedulers share the same use cases.
type Handlers struct {
	Health      *handlers.HealthHandler
	Cart        *handlers.CartHandler
	Checkout    *handlers.CheckoutHandler
	Catalog     *handlers.CatalogHandler
	Application *handlers.ApplicationHandler
	Admin       *handlers.AdminHandler
}

func NewServer(cfg *config.Config, h Handlers, log *logger.Logger) *Server {
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		server:             server,
		logger:             log,
		healthHandler:      h.Health,
		cartHandler:        h.Cart,
		checkoutHandler:    h.Checkout,
		catalogHandler:     h.Catalog,
		applicationHandler: h.Application,
		adminHandler:       h.Admin,
	}
}

func (s *Server) ListenAndServe() error {
	s.server.Handler = s.setupRoutes()

	s.logger.Info("Starting HTTP server", "address", s.server.Addr)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
