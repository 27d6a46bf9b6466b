package health

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"skwabl/turns/internal/meter"
)

type fixedRooms int

func (n fixedRooms) Len() int { return int(n) }

func TestUnlinkedBridgeDoesNotFailHealth(t *testing.T) {
	st := CheckAll(context.Background(), Deps{Bridge: meter.Unlinked{}, Rooms: fixedRooms(3)})
	if !st.OK {
		t.Fatalf("expected ok, got %s", st)
	}
	if len(st.Checks) != 2 || st.Checks[0].OK || st.Checks[0].Error == "" {
		t.Fatalf("expected failed optional bridge check, got %+v", st.Checks)
	}
	if st.Checks[1].Detail != "3 open" {
		t.Fatalf("unexpected rooms detail %q", st.Checks[1].Detail)
	}
}

func TestMissingStoreFailsHealth(t *testing.T) {
	st := CheckAll(context.Background(), Deps{Bridge: meter.NewBridge("static")})
	if st.OK {
		t.Fatalf("expected failure without a store")
	}
	if !st.Checks[0].OK || st.Checks[0].Detail != "Microphone bridge is working!" {
		t.Fatalf("unexpected bridge check %+v", st.Checks[0])
	}
	if !strings.Contains(st.String(), "FAIL") {
		t.Fatalf("string form should say FAIL: %s", st)
	}
}

func TestGRPCProbe(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	p := NewProbe(zerolog.Nop())
	go p.Serve(lis)
	defer p.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", resp.GetStatus())
	}

	p.Draining()
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("check after drain: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", resp.GetStatus())
	}
}
