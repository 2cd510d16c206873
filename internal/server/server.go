package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"payments_admin/internal/handlers"
	"payments_admin/internal/transport/middleware"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(port string, h *handlers.Handlers) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      Routes(h),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func Routes(h *handlers.Handlers) http.Handler {
	mux := http.NewServeMux()
	if h == nil {
		return mux
	}

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /payments", h.Payments)
	mux.HandleFunc("GET /payments/export", h.Export)
	mux.HandleFunc("GET /payments/{id}", h.Payment)
	mux.HandleFunc("POST /payments/reload", h.Reload)
	mux.HandleFunc("DELETE /payments/{id}", h.Delete)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	return middleware.RequestLog(h.Logger)(mux)
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
