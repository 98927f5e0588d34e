package grpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
)

// DefaultServerOptions returns standard options for service gRPC servers.
// Includes the OTel stats handler so inbound calls join the caller's trace
// when a TracerProvider is registered.
func DefaultServerOptions(interceptors ...gogrpc.UnaryServerInterceptor) []gogrpc.ServerOption {
	opts := []gogrpc.ServerOption{
		gogrpc.StatsHandler(otelgrpc.NewServerHandler()),
	}
	if len(interceptors) > 0 {
		opts = append(opts, gogrpc.ChainUnaryInterceptor(interceptors...))
	}
	return opts
}
