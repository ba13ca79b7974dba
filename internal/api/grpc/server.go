// Package grpc exposes the standard gRPC health and reflection services for
// load balancers and operators. The business API is served over HTTP.
package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"sharenet-backend/internal/api/grpc/interceptor"
	"sharenet-backend/internal/logger"
)

// ServiceName is the name reported alongside the overall ("") health status.
const ServiceName = "sharenet.v1.ShareNet"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	*grpc.Server
	health *health.Server
	db     Pinger
}

func NewServer(db Pinger) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.RequestID(),
			interceptor.Logging(),
			interceptor.Recovery(),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return &Server{Server: s, health: hs, db: db}
}

// CheckDatabase pings the database once and publishes the result as the
// serving status.
func (s *Server) CheckDatabase(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "Database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// WatchDatabase re-checks the database every interval until ctx is done, then
// marks every service as not serving.
func (s *Server) WatchDatabase(ctx context.Context, interval time.Duration) {
	s.CheckDatabase(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.CheckDatabase(ctx)
		}
	}
}
