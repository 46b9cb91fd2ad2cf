// Package httpapi exposes the authentication core over JSON HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/clock"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address    string
	auth       *services.AuthService
	catalog    *services.CatalogService
	logger     logging.Logger
	jwtSecret  []byte
	sessionTTL time.Duration
	clock      clock.Clock
}

func NewServer(a string, l logging.Logger, as *services.AuthService, cs *services.CatalogService, secretKey string, sessionTTL time.Duration, c clock.Clock) *Server {
	return &Server{
		address:    a,
		logger:     l.With("module", "http_server"),
		auth:       as,
		catalog:    cs,
		jwtSecret:  []byte(secretKey),
		sessionTTL: sessionTTL,
		clock:      c,
	}
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
