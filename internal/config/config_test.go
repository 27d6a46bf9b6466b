package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "TIMER_DEFAULT_SECONDS", "METER_SAMPLE_HZ", "ALLOWED_ORIGINS", "TIMER_TICK_MS"} {
		t.Setenv(k, "")
	}

	c := Load()

	if c.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", c.Server.Port)
	}
	if c.Server.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", c.Server.LogLevel)
	}
	if c.Timer.DefaultSeconds != 120 {
		t.Fatalf("expected default slot 120, got %d", c.Timer.DefaultSeconds)
	}
	if c.Timer.TickMs != 1000 {
		t.Fatalf("expected 1s tick, got %d", c.Timer.TickMs)
	}
	if c.Meter.SampleHz != 60 {
		t.Fatalf("expected 60Hz meter, got %d", c.Meter.SampleHz)
	}
	if len(c.Server.AllowedOrigins) != 1 || c.Server.AllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard origins, got %v", c.Server.AllowedOrigins)
	}
	if len(c.Warnings) != 0 {
		t.Fatalf("defaults should not warn: %v", c.Warnings)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TIMER_DEFAULT_SECONDS", "300")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCREEN_TOKEN_SECRET", "s3cret")

	c := Load()

	if c.Server.Port != "9000" {
		t.Fatalf("expected port 9000, got %q", c.Server.Port)
	}
	if c.Timer.DefaultSeconds != 300 {
		t.Fatalf("expected slot 300, got %d", c.Timer.DefaultSeconds)
	}
	if len(c.Server.AllowedOrigins) != 2 || c.Server.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", c.Server.AllowedOrigins)
	}
	if c.Screen.TokenSecret != "s3cret" {
		t.Fatalf("expected token secret from env")
	}
}

func TestInvalidTimerValuesFallBackWithWarnings(t *testing.T) {
	t.Setenv("TIMER_DEFAULT_SECONDS", "90")
	t.Setenv("TIMER_TICK_MS", "-5")
	c := Load()
	if c.Timer.DefaultSeconds != 120 || c.Timer.TickMs != 1000 {
		t.Fatalf("expected fallbacks 120s/1000ms, got %ds/%dms", c.Timer.DefaultSeconds, c.Timer.TickMs)
	}
	if len(c.Warnings) != 2 || !strings.Contains(c.Warnings[0], "timer.default_seconds=90") {
		t.Fatalf("expected both fallbacks reported, got %v", c.Warnings)
	}
}
