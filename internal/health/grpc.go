package health

import (
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes ask about over the gRPC health protocol.
const ServiceName = "skwabl.turns"

// Probe serves the standard gRPC health service for orchestrators that probe
// over gRPC instead of HTTP.
type Probe struct {
	srv    *grpc.Server
	health *grpchealth.Server
	log    zerolog.Logger
}

func NewProbe(log zerolog.Logger) *Probe {
	hs := grpchealth.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return &Probe{srv: srv, health: hs, log: log}
}

// Serve blocks until the listener fails or Stop is called.
func (p *Probe) Serve(lis net.Listener) error {
	p.log.Info().Str("addr", lis.Addr().String()).Msg("grpc health probe listening")
	return p.srv.Serve(lis)
}

// Draining flips every service to NOT_SERVING so probes fail before the
// HTTP listener goes away.
func (p *Probe) Draining() {
	p.health.Shutdown()
}

func (p *Probe) Stop() {
	p.health.Shutdown()
	p.srv.GracefulStop()
}
