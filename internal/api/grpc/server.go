// Package grpcapi exposes the standard gRPC health service, reporting the
// tone monitor's state, with reflection enabled for grpcurl.
package grpcapi

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"tone-monitor-service/internal/observability"
	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/observability/metrics"
	"tone-monitor-service/internal/service/monitor"
)

// ServiceName is the health service name that follows the monitor: SERVING
// while a session is enabled, NOT_SERVING otherwise. The empty name reports
// the process itself.
const ServiceName = "tone.monitor.v1.ToneMonitor"

// StateSource publishes monitor state changes.
type StateSource interface {
	Subscribe() (<-chan monitor.State, func())
}

// Server wraps the gRPC server and its health registry.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	source StateSource
	logger zerolog.Logger
}

// New builds the gRPC server with metrics interceptors, health and reflection.
func New(source StateSource, m *metrics.Metrics) *Server {
	g := grpc.NewServer(
		grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor(m)),
		grpc.ChainStreamInterceptor(observability.StreamServerInterceptor(m)),
	)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(g, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Enable gRPC reflection for debugging tools like grpcurl
	reflection.Register(g)

	return &Server{
		grpc:   g,
		health: hs,
		source: source,
		logger: logging.WithComponent("grpc"),
	}
}

// Serve accepts connections on lis until Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC server started")
	return s.grpc.Serve(lis)
}

// Watch mirrors monitor state into the health registry until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	states, unsubscribe := s.source.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case st := <-states:
			s.health.SetServingStatus(ServiceName, StatusFor(st))
		}
	}
}

// Shutdown marks everything NOT_SERVING and drains in-flight calls.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
	s.logger.Info().Msg("gRPC server stopped")
}

// StatusFor maps monitor state to a health status.
func StatusFor(st monitor.State) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if st.Enabled {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING
}
