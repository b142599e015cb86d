// Package server runs the HTTP listener and the gRPC health endpoint until
// the context is cancelled, then drains in-flight requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	grpcserver "github.com/bytekstore/bytek/pkg/grpc"
	"github.com/bytekstore/bytek/pkg/logger"
)

// Options configure Run.
type Options struct {
	Port string

	// GRPCPort enables the health service when set.
	GRPCPort string
	Probe    grpcserver.Probe

	ShutdownTimeout time.Duration
}

// Run serves h until ctx is done. A listener failure is returned
// immediately; a cancelled ctx results in a graceful shutdown.
func Run(ctx context.Context, h http.Handler, o Options) error {
	if o.Port == "" {
		o.Port = "8080"
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 15 * time.Second
	}

	srv := &http.Server{
		Addr:              ":" + o.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if o.GRPCPort != "" {
		gs, err := grpcserver.Start(ctx, o.GRPCPort, o.Probe)
		if err != nil {
			return err
		}
		defer gs.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("http: shutting down", "timeout", o.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http: shutdown: %w", err)
	}
	return nil
}
