package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"skwabl/turns/internal/turn"
)

type Config struct {
	Server struct {
		Port           string
		LogLevel       string
		LogFormat      string
		AllowedOrigins []string
	}
	Probe struct {
		Addr     string
		GRPCAddr string
	}
	Timer struct {
		DefaultSeconds int
		TickMs         int
	}
	Meter struct {
		SampleHz int
		Bridge   string
	}
	Screen struct {
		TokenSecret   string
		TokenTTLMin   int
		TokenSkewSecs int
	}
	Events struct {
		MaxPerRoom int
	}
	// Warnings lists values Load replaced with defaults. Load runs before
	// logging is configured, so the caller logs them.
	Warnings []string
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "console")
	v.SetDefault("server.allowed_origins", "*")

	v.SetDefault("probe.addr", ":8082")
	v.SetDefault("probe.grpc_addr", ":9090")

	v.SetDefault("timer.default_seconds", turn.DefaultDuration)
	v.SetDefault("timer.tick_ms", 1000)

	v.SetDefault("meter.sample_hz", 60)
	v.SetDefault("meter.bridge", "unlinked")

	v.SetDefault("screen.token_ttl_min", 720)
	v.SetDefault("screen.token_skew_secs", 60)

	v.SetDefault("events.max_per_room", 200)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("server.log_format", "LOG_FORMAT")
	v.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")

	v.BindEnv("probe.addr", "PROBE_ADDR")
	v.BindEnv("probe.grpc_addr", "PROBE_GRPC_ADDR")

	v.BindEnv("timer.default_seconds", "TIMER_DEFAULT_SECONDS")
	v.BindEnv("timer.tick_ms", "TIMER_TICK_MS")

	v.BindEnv("meter.sample_hz", "METER_SAMPLE_HZ")
	v.BindEnv("meter.bridge", "METER_BRIDGE")

	v.BindEnv("screen.token_secret", "SCREEN_TOKEN_SECRET")
	v.BindEnv("screen.token_ttl_min", "SCREEN_TOKEN_TTL_MIN")
	v.BindEnv("screen.token_skew_secs", "SCREEN_TOKEN_SKEW_SECS")

	v.BindEnv("events.max_per_room", "EVENTS_MAX_PER_ROOM")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")
	c.Server.LogFormat = v.GetString("server.log_format")
	c.Server.AllowedOrigins = splitList(v.GetString("server.allowed_origins"))

	c.Probe.Addr = v.GetString("probe.addr")
	c.Probe.GRPCAddr = v.GetString("probe.grpc_addr")

	c.Timer.DefaultSeconds = v.GetInt("timer.default_seconds")
	if !turn.ValidDuration(c.Timer.DefaultSeconds) {
		c.Warnings = append(c.Warnings, fmt.Sprintf("timer.default_seconds=%d is not an offered duration; using %d", c.Timer.DefaultSeconds, turn.DefaultDuration))
		c.Timer.DefaultSeconds = turn.DefaultDuration
	}
	c.Timer.TickMs = v.GetInt("timer.tick_ms")
	if c.Timer.TickMs <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("timer.tick_ms=%d must be positive; using 1000", c.Timer.TickMs))
		c.Timer.TickMs = 1000
	}

	c.Meter.SampleHz = v.GetInt("meter.sample_hz")
	c.Meter.Bridge = v.GetString("meter.bridge")

	c.Screen.TokenSecret = v.GetString("screen.token_secret")
	c.Screen.TokenTTLMin = v.GetInt("screen.token_ttl_min")
	c.Screen.TokenSkewSecs = v.GetInt("screen.token_skew_secs")

	c.Events.MaxPerRoom = v.GetInt("events.max_per_room")

	return c
}

func toString(v any) string { return fmt.Sprint(v) }

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
