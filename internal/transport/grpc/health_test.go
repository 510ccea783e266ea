package grpc

import (
	"context"
	"errors"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakePinger struct {
	pingFn func(ctx context.Context) error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.pingFn == nil {
		panic("Ping not configured")
	}
	return f.pingFn(ctx)
}

func checkStatus(t *testing.T, h *HealthServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q) error: %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealthServer_FollowsStorePing(t *testing.T) {
	var pingErr error
	h := NewHealthServer(&fakePinger{
		pingFn: func(ctx context.Context) error { return pingErr },
	}, 0, nil)

	if got := checkStatus(t, h, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status = %v, want NOT_SERVING", got)
	}

	if got := h.Probe(context.Background()); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("Probe = %v, want SERVING", got)
	}
	if got := checkStatus(t, h, AppointmentsService); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", got)
	}

	pingErr = errors.New("db down")
	h.Probe(context.Background())
	if got := checkStatus(t, h, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v, want NOT_SERVING", got)
	}
}

func TestHealthServer_ShutdownSticks(t *testing.T) {
	h := NewHealthServer(&fakePinger{
		pingFn: func(ctx context.Context) error { return nil },
	}, 0, nil)

	h.Probe(context.Background())
	h.Shutdown()
	h.Probe(context.Background())

	if got := checkStatus(t, h, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v, want NOT_SERVING", got)
	}
}

func TestHealthServer_RunStopsOnCancel(t *testing.T) {
	calls := make(chan struct{}, 8)
	h := NewHealthServer(&fakePinger{
		pingFn: func(ctx context.Context) error {
			select {
			case calls <- struct{}{}:
			default:
			}
			return nil
		},
	}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	<-calls
	cancel()
	<-done
}
