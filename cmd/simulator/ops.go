package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// opsServer serves the health and metrics endpoints next to the pipeline.
type opsServer struct {
	srv    *http.Server
	ln     net.Listener
	logger zerolog.Logger
}

func newOpsServer(addr string, handler http.Handler, logger zerolog.Logger) *opsServer {
	return &opsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("unit", "ops").Logger(),
	}
}

// Start binds the listener and serves in the background.
func (o *opsServer) Start() error {
	ln, err := net.Listen("tcp", o.srv.Addr)
	if err != nil {
		return fmt.Errorf("ops server: %w", err)
	}
	o.ln = ln

	o.logger.Info().Str("addr", ln.Addr().String()).Msg("ops server listening")
	go func() {
		if err := o.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error().Err(err).Msg("ops server failed")
		}
	}()
	return nil
}

func (o *opsServer) Addr() string {
	return o.ln.Addr().String()
}

func (o *opsServer) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := o.srv.Shutdown(ctx); err != nil {
		o.logger.Warn().Err(err).Msg("ops server shutdown failed")
	}
}
