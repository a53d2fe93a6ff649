// Package grpcx exposes the standard gRPC health service, reporting SERVING
// only while the document store is reachable.
package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/interceptors"
)

const pingTimeout = 2 * time.Second

type Server struct {
	grpc        *grpc.Server
	health      *health.Server
	store       ports.StoreHealth
	serviceName string
}

func NewServer(store ports.StoreHealth, serviceName string) *Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.RequestIDUnaryInterceptor(),
			interceptors.LoggingUnaryInterceptor(),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{grpc: srv, health: hs, store: store, serviceName: serviceName}
	s.publish(store.Available())
	return s
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Watch pings the store every interval and publishes the result until ctx
// is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Refresh re-checks the store once and publishes the outcome.
func (s *Server) Refresh(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	was := s.store.Available()
	err := s.store.Ping(pingCtx)
	if now := err == nil; now != was {
		slog.InfoContext(ctx, "store availability changed", "available", now, "error", err)
	}
	s.publish(err == nil)
}

func (s *Server) publish(up bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if up {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.serviceName, status)
}

// GracefulStop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
