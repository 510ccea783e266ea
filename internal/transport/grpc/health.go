package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AppointmentsService is the service name reported alongside the overall ("") status.
const AppointmentsService = "pestbook.Appointments"

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer serves grpc.health.v1 with a status that follows the store.
type HealthServer struct {
	srv      *health.Server
	store    pinger
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

func NewHealthServer(store pinger, interval time.Duration, log *slog.Logger) *HealthServer {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	h := &HealthServer{
		srv:      health.NewServer(),
		store:    store,
		interval: interval,
		timeout:  2 * time.Second,
		log:      log.With(slog.String("component", "grpc.health")),
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Run probes the store every interval until ctx is done.
func (h *HealthServer) Run(ctx context.Context) {
	h.Probe(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Probe pings the store once and publishes the resulting status.
func (h *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("store ping failed", slog.Any("err", err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.set(status)
	return status
}

// Shutdown marks every service NOT_SERVING; later status updates are ignored.
func (h *HealthServer) Shutdown() {
	h.srv.Shutdown()
}

func (h *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(AppointmentsService, status)
}
