package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/config"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

// Server is the HTTP API server
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires routes, middleware and the underlying http.Server
func NewServer(cfg *config.Config, rides bidding.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	handler := NewHandler(rides)
	wsHandler := NewWebSocketHandler(rides, logger)
	auth := NewAuthMiddleware(cfg.Security.JWTSecret)
	limiter := newIPRateLimiter(cfg.Security.RateLimit.RequestsPerSecond, cfg.Security.RateLimit.BurstSize)

	mux := http.NewServeMux()

	// Unauthenticated surface.
	mux.HandleFunc("GET /healthz", handler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Ride lifecycle API.
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/rides", handler.CreateRide)
	api.HandleFunc("GET /api/v1/rides/{id}", handler.GetRide)
	api.HandleFunc("POST /api/v1/rides/{id}/bids", handler.SubmitBid)
	api.HandleFunc("GET /api/v1/rides/{id}/bids", handler.ListBids)
	api.HandleFunc("POST /api/v1/rides/{id}/select", handler.SelectDriver)
	api.HandleFunc("POST /api/v1/rides/{id}/start", handler.StartTrip)
	api.HandleFunc("POST /api/v1/rides/{id}/complete", handler.CompleteTrip)
	api.HandleFunc("POST /api/v1/rides/{id}/cancel", handler.CancelRide)
	api.HandleFunc("GET /api/v1/rides/{id}/subscribe", wsHandler.Subscribe)
	mux.Handle("/api/v1/", auth.Middleware(api))

	root := chain(mux,
		recoveryMiddleware,
		loggingMiddleware,
		limiter.Middleware,
	)

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      root,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logger,
	}
}

// Start serves until ctx is cancelled, then drains connections within the
// configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server",
		"timeout", s.cfg.Server.ShutdownTimeout.String())
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Handler exposes the assembled handler for in-process tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// WaitReady polls the health endpoint until the server answers or the
// timeout elapses, used by integration tooling.
func (s *Server) WaitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", s.cfg.Server.Port)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %s", timeout)
}
