package haptics

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Kind string

const (
	KindShort  Kind = "short"
	KindMedium Kind = "medium"
	KindLong   Kind = "long"
)

// Pulse is one vibration request. Screens map Duration onto whatever their
// platform vibrator accepts.
type Pulse struct {
	Kind     Kind
	Duration time.Duration
}

var (
	Short  = Pulse{Kind: KindShort, Duration: 50 * time.Millisecond}
	Medium = Pulse{Kind: KindMedium, Duration: 150 * time.Millisecond}
	Long   = Pulse{Kind: KindLong, Duration: 300 * time.Millisecond}
)

func (p Pulse) Millis() int64 { return p.Duration.Milliseconds() }

// Vibrator receives pulses. Implementations must return without blocking.
type Vibrator interface {
	Vibrate(p Pulse)
}

// Func adapts a plain function to Vibrator.
type Func func(p Pulse)

func (f Func) Vibrate(p Pulse) { f(p) }

// Async hands pulses to a sink on its own goroutine. Vibrate never blocks:
// when the queue is full the pulse is dropped.
type Async struct {
	sink  Vibrator
	queue chan Pulse
	log   zerolog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsync(sink Vibrator, depth int, log zerolog.Logger) *Async {
	if depth <= 0 {
		depth = 16
	}
	a := &Async{
		sink:  sink,
		queue: make(chan Pulse, depth),
		log:   log,
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for p := range a.queue {
		a.sink.Vibrate(p)
		metricPulses.WithLabelValues(string(p.Kind)).Inc()
	}
}

func (a *Async) Vibrate(p Pulse) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		metricDropped.Inc()
		return
	}
	select {
	case a.queue <- p:
	default:
		metricDropped.Inc()
		a.log.Warn().Str("kind", string(p.Kind)).Msg("haptic queue full; pulse dropped")
	}
}

// Close stops accepting pulses and waits for queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

// Recorder keeps every pulse it receives.
type Recorder struct {
	mu     sync.Mutex
	pulses []Pulse
}

func (r *Recorder) Vibrate(p Pulse) {
	r.mu.Lock()
	r.pulses = append(r.pulses, p)
	r.mu.Unlock()
}

func (r *Recorder) Pulses() []Pulse {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Pulse, len(r.pulses))
	copy(out, r.pulses)
	return out
}

// Count returns how many pulses of the given kind were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.pulses {
		if p.Kind == k {
			n++
		}
	}
	return n
}
