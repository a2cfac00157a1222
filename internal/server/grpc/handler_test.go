package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type fakePinger struct {
	down atomic.Bool
}

func (p *fakePinger) PingContext(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func startBufServer(t *testing.T, db Pinger, interval time.Duration) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewHealthServer("bufnet", logging.Nop{}, db, interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return healthpb.NewHealthClient(conn)
}

func checkStatus(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealth_ServingWhenDatabaseReachable(t *testing.T) {
	c := startBufServer(t, &fakePinger{}, time.Second)

	for _, svc := range []string{"", ServiceName} {
		if got := checkStatus(t, c, svc); got != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("status(%q) = %v, want SERVING", svc, got)
		}
	}
}

func TestHealth_FollowsDatabase(t *testing.T) {
	db := &fakePinger{}
	db.down.Store(true)
	c := startBufServer(t, db, 20*time.Millisecond)

	if got := checkStatus(t, c, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v, want NOT_SERVING", got)
	}

	db.down.Store(false)
	deadline := time.Now().Add(2 * time.Second)
	for checkStatus(t, c, ServiceName) != healthpb.HealthCheckResponse_SERVING {
		if time.Now().After(deadline) {
			t.Fatal("status did not recover after database came back")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealth_UnknownService(t *testing.T) {
	c := startBufServer(t, nil, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: "other"}); err == nil {
		t.Fatal("expected NotFound for unregistered service")
	}
}
