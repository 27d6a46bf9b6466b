package haptics

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestAsyncDeliversInOrder(t *testing.T) {
	rec := &Recorder{}
	a := NewAsync(rec, 8, zerolog.Nop())
	a.Vibrate(Short)
	a.Vibrate(Medium)
	a.Vibrate(Long)
	a.Close()

	got := rec.Pulses()
	if len(got) != 3 || got[0] != Short || got[1] != Medium || got[2] != Long {
		t.Fatalf("unexpected pulses: %+v", got)
	}
}

func TestAsyncDropsWhenFullAndAfterClose(t *testing.T) {
	release := make(chan struct{})
	rec := &Recorder{}
	a := NewAsync(Func(func(p Pulse) {
		<-release
		rec.Vibrate(p)
	}), 1, zerolog.Nop())

	// One pulse may sit in the sink and one in the queue; the rest are dropped
	// without blocking the caller.
	for i := 0; i < 10; i++ {
		a.Vibrate(Short)
	}
	close(release)
	a.Close()
	a.Close()
	a.Vibrate(Long)

	if n := rec.Count(KindShort); n < 1 || n > 2 {
		t.Fatalf("expected 1 or 2 short pulses, got %d", n)
	}
	if rec.Count(KindLong) != 0 {
		t.Fatalf("pulse delivered after close")
	}
}

func TestPulseDurations(t *testing.T) {
	for _, tc := range []struct {
		p    Pulse
		want int64
	}{{Short, 50}, {Medium, 150}, {Long, 300}} {
		if got := tc.p.Millis(); got != tc.want {
			t.Fatalf("%s: got %dms want %dms", tc.p.Kind, got, tc.want)
		}
	}
}
