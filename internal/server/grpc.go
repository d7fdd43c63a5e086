package server

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServiceName returns the gRPC health service name reported for domain.
func HealthServiceName(domain string) string {
	return "tablefn." + domain
}

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the health service with every domain marked SERVING, and enables
// reflection. The returned health server lets callers flip statuses on
// shutdown.
func NewGRPCServer(domains []string, authToken string, logger *slog.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
			AuthInterceptor(authToken),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, d := range domains {
		hs.SetServingStatus(HealthServiceName(d), healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return srv, hs
}
