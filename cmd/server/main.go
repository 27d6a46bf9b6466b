package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"skwabl/turns/internal/api"
	"skwabl/turns/internal/config"
	"skwabl/turns/internal/health"
	"skwabl/turns/internal/logging"
	"skwabl/turns/internal/meter"
	"skwabl/turns/internal/screenws"
	"skwabl/turns/internal/store"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}
	log.Debug().Str("port", cfg.Server.Port).Int("default_seconds", cfg.Timer.DefaultSeconds).Msg("config loaded")

	clock := clockwork.NewRealClock()
	st := store.New(cfg.Events.MaxPerRoom)
	reg := screenws.NewRegistry(logging.Component("screenws"))

	bridge := meter.NewBridge(cfg.Meter.Bridge)
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 2*time.Second)
	meter.LogProbe(probeCtx, bridge, logging.Component("meter"))
	cancelProbe()

	if cfg.Screen.TokenSecret == "" {
		log.Warn().Msg("SCREEN_TOKEN_SECRET not set; screen websocket is unauthenticated")
	}

	h := api.NewHandlers(cfg, st, reg, bridge, clock, logging.Component("api"))
	wss := screenws.NewServer(cfg, st, reg, logging.Component("screenws"))
	wss.Clock = clock

	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	mux.HandleFunc("/ws/screen", wss.HandleScreenWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(logging.Component("http"), mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var draining atomic.Bool
	probe := health.NewProbe(logging.Component("probe"))
	go serveProbes(cfg, &draining)
	go serveGRPCProbe(cfg.Probe.GRPCAddr, probe)

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Info().Msg("shutdown signal received; stopping server")
		draining.Store(true)
		probe.Draining()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Info().Str("addr", addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}

	// Websocket handlers are hijacked and outlive Shutdown; closing the rooms
	// and screens ends them.
	for _, id := range st.ListRoomIDs() {
		reg.Drop(id)
	}
	st.CloseAll()
	probe.Stop()
	log.Info().Msg("server stopped")
}

func serveProbes(cfg config.Config, draining *atomic.Bool) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok\n")) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if draining.Load() {
			http.Error(w, "draining", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("addr", cfg.Probe.Addr).Msg("probes/metrics listening")
	if err := http.ListenAndServe(cfg.Probe.Addr, mux); err != nil {
		log.Error().Err(err).Msg("probe server")
	}
}

func serveGRPCProbe(addr string, p *health.Probe) {
	if addr == "" {
		return
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("grpc probe listen")
		return
	}
	if err := p.Serve(l); err != nil {
		log.Error().Err(err).Msg("grpc probe serve")
	}
}

func logMiddleware(l zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("request")
	})
}
