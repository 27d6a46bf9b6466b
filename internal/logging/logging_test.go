package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	l := setup(&buf, "debug", "json")
	l.Debug().Str("room_id", "r1").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if line["room_id"] != "r1" || line["message"] != "hello" {
		t.Fatalf("unexpected fields: %v", line)
	}
}

func TestSetupBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	setup(&buf, "loud", "json")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %v", zerolog.GlobalLevel())
	}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.DebugLevel) })
}
