// Package observability provides the metrics and health HTTP server and the
// gRPC interceptors that count calls to the health service.
package observability

import (
	"context"
	"slices"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/observability/metrics"
)

// observeRPC records one finished call. Health probes arrive every few
// seconds, so only failures other than the expected codes are logged above
// debug level.
func observeRPC(m *metrics.Metrics, method string, start time.Time, err error, expected ...codes.Code) {
	duration := time.Since(start)
	code := status.Code(err)
	m.RecordRPC(method, code.String(), duration.Seconds())

	logger := logging.WithComponent("grpc")
	ev := logger.Debug()
	if err != nil && !slices.Contains(expected, code) {
		ev = logger.Warn().Err(err)
	}
	ev.Str("method", method).
		Str("code", code.String()).
		Dur("duration", duration).
		Msg("gRPC call finished")
}

// UnaryServerInterceptor counts unary calls such as Health/Check.
func UnaryServerInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		observeRPC(m, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamServerInterceptor counts streams. A Health/Watch stream stays open
// until the client leaves or the server shuts down, so its duration is the
// subscription lifetime and a Canceled code is the normal outcome.
func StreamServerInterceptor(m *metrics.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		logger := logging.WithComponent("grpc")
		logger.Debug().Str("method", info.FullMethod).Msg("gRPC stream opened")

		err := handler(srv, ss)
		observeRPC(m, info.FullMethod, start, err, codes.Canceled)
		return err
	}
}
