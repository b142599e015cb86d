// Package grpc runs the shop's gRPC listener. It serves the standard
// grpc.health.v1.Health service so orchestrators can probe readiness, with
// status driven by a caller-supplied probe (the database ping).
//
//	srv, err := grpc.Start(ctx, config.GRPCPort(), database.Ping)
//	defer srv.Stop()
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/bytekstore/bytek/pkg/logger"
)

// ServiceName is the health service name reported alongside the overall "".
const ServiceName = "bytek.Storefront"

// Probe reports whether dependencies are reachable.
type Probe func(ctx context.Context) error

func recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"code", status.Code(err).String(),
	)
	return resp, err
}

// Server bundles the gRPC server and its health state.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	lis    net.Listener
	cancel context.CancelFunc
}

// New builds a server without listening. Useful for tests with bufconn.
func New() *Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(recoveryInterceptor, loggingInterceptor))
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return &Server{srv: srv, health: hs}
}

// Start listens on port, serves in the background and re-evaluates probe
// every interval.
func Start(ctx context.Context, port string, probe Probe) (*Server, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("grpc: listen on :%s: %w", port, err)
	}

	s := New()
	s.lis = lis
	probeCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.watch(probeCtx, probe, 10*time.Second)

	go func() {
		if err := s.srv.Serve(lis); err != nil {
			logger.Error("grpc: serve error", "error", err)
		}
	}()
	logger.Info("grpc: listening", "addr", lis.Addr().String())
	return s, nil
}

// Check runs probe once and updates the reported status.
func (s *Server) Check(ctx context.Context, probe Probe) grpc_health_v1.HealthCheckResponse_ServingStatus {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if probe != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := probe(pctx)
		cancel()
		if err != nil {
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			logger.Warn("grpc: health probe failed", "error", err)
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

func (s *Server) watch(ctx context.Context, probe Probe, every time.Duration) {
	s.Check(ctx, probe)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Check(ctx, probe)
		}
	}
}

// Health exposes the health server for in-process checks.
func (s *Server) Health() grpc_health_v1.HealthServer { return s.health }

// Stop marks the service NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.health.Shutdown()
	s.srv.GracefulStop()
	logger.Info("grpc: stopped")
}
