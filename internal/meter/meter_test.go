package meter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func TestNormalizeDB(t *testing.T) {
	cases := map[float64]float64{-160: 0, -100: 0, -50: 0.5, 0: 1, 12: 1}
	for in, want := range cases {
		if got := NormalizeDB(in); got != want {
			t.Fatalf("NormalizeDB(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSmootherWeightsNewest(t *testing.T) {
	var s Smoother
	if got := s.Apply(1); got != 0.7 {
		t.Fatalf("first sample = %v", got)
	}
	got := s.Apply(0)
	if diff := got - 0.21; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("second sample = %v", got)
	}
	s.Reset()
	if got := s.Apply(0); got != 0 {
		t.Fatalf("after reset = %v", got)
	}
}

func TestSynthStaysInRange(t *testing.T) {
	s := NewSynth(7)
	for i := 0; i < 5000; i++ {
		v := s.Level()
		if v < 0 || v > 1 {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
	}
}

func TestBarsColouring(t *testing.T) {
	bars := Bars(1, true)
	if len(bars) != BarCount {
		t.Fatalf("expected %d bars, got %d", BarCount, len(bars))
	}
	for i, c := range bars {
		var want string
		switch {
		case i < 6:
			want = ColorLow
		case i < 10:
			want = ColorMid
		default:
			want = ColorPeak
		}
		if c != want {
			t.Fatalf("bar %d = %s, want %s", i, c, want)
		}
	}

	half := Bars(0.5, true)
	if half[5] != ColorLow || half[6] != ColorIdle {
		t.Fatalf("half level bars: %v", half)
	}

	for _, c := range Bars(1, false) {
		if c != ColorIdle {
			t.Fatalf("inactive meter must be grey, got %v", c)
		}
	}
}

func TestFillColorStops(t *testing.T) {
	cases := map[float64]string{0: "#dfe7ff", 0.7: "#8fb6ff", 0.9: "#ffcb7a", 1: "#ff5a5a", 2: "#ff5a5a"}
	for in, want := range cases {
		if got := FillColor(in); got != want {
			t.Fatalf("FillColor(%v) = %s, want %s", in, got, want)
		}
	}
}

type constSource float64

func (c constSource) Level() float64 { return float64(c) }

type readings struct {
	mu  sync.Mutex
	got []Reading
}

func (r *readings) add(x Reading) {
	r.mu.Lock()
	r.got = append(r.got, x)
	r.mu.Unlock()
}

func (r *readings) snapshot() []Reading {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Reading(nil), r.got...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestSamplerPollsOnlyWhileActive(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var rs readings
	s := NewSampler("A", constSource(1), clock, 60, rs.add)
	defer s.Close()

	s.SetActive(true)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("ticker never started: %v", err)
	}
	clock.Advance(time.Second / 60)
	waitFor(t, func() bool { return len(rs.snapshot()) == 1 })
	first := rs.snapshot()[0]
	if first.Side != "A" || first.Level != 0.7 || first.Bars[0] != ColorLow {
		t.Fatalf("unexpected reading: %+v", first)
	}

	s.SetActive(false)
	got := rs.snapshot()
	if last := got[len(got)-1]; last.Level != 0 || last.Bars[0] != ColorIdle {
		t.Fatalf("closing the gate should publish a zero reading, got %+v", last)
	}
	n := len(got)
	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	if len(rs.snapshot()) != n {
		t.Fatalf("sampler kept polling after gate closed")
	}
}

func TestGateCloseLandsAfterInFlightSample(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var rs readings
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	emit := func(x Reading) {
		if x.Level > 0 {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		rs.add(x)
	}
	s := NewSampler("A", constSource(1), clock, 60, emit)
	defer s.Close()

	s.SetActive(true)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("ticker never started: %v", err)
	}
	clock.Advance(time.Second / 60)
	select {
	case <-entered:
	case <-ctx.Done():
		t.Fatalf("sample never emitted")
	}

	closed := make(chan struct{})
	go func() {
		s.SetActive(false)
		close(closed)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	select {
	case <-closed:
	case <-ctx.Done():
		t.Fatalf("gate close never returned")
	}

	got := rs.snapshot()
	if len(got) != 2 {
		t.Fatalf("expected lit then zero reading, got %+v", got)
	}
	if last := got[1]; last.Level != 0 || last.Bars[0] != ColorIdle {
		t.Fatalf("zero reading must be last, got %+v", last)
	}
}

func TestSamplerDisabled(t *testing.T) {
	var rs readings
	s := NewSampler("B", constSource(1), clockwork.NewFakeClock(), 0, rs.add)
	s.SetActive(true)
	if !s.Active() {
		t.Fatalf("gate should still track state")
	}
	s.Close()
	if len(rs.snapshot()) != 0 {
		t.Fatalf("disabled sampler published readings")
	}
}

func TestBridges(t *testing.T) {
	ctx := context.Background()
	if _, err := NewBridge("unlinked").Probe(ctx); !errors.Is(err, ErrBridgeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	msg, err := NewBridge("static").Probe(ctx)
	if err != nil || msg == "" {
		t.Fatalf("static bridge: %q %v", msg, err)
	}
	if LogProbe(ctx, Unlinked{}, zerolog.Nop()) {
		t.Fatalf("unlinked probe reported ok")
	}
}
