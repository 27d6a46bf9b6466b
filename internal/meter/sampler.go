package meter

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Reading is one published meter sample for a side.
type Reading struct {
	Side  string   `json:"who"`
	Level float64  `json:"level"`
	Bars  []string `json:"bars"`
	Fill  string   `json:"fill"`
}

func newReading(side string, level float64, active bool) Reading {
	return Reading{Side: side, Level: level, Bars: Bars(level, active), Fill: FillColor(level)}
}

// Sampler polls a Source at a fixed rate while its gate is open. Closing the
// gate stops polling and publishes a zero reading so the bar drops at once.
type Sampler struct {
	side     string
	src      Source
	clock    clockwork.Clock
	interval time.Duration
	emit     func(Reading)

	// emitMu orders readings: a lit sample taken before the gate closed can
	// never be published after the zero reading.
	emitMu sync.Mutex

	mu     sync.Mutex
	smooth Smoother
	active bool
	closed bool
	gen    uint64
	cancel context.CancelFunc
}

// NewSampler builds a sampler polling hz times per second. hz <= 0 keeps the
// gate bookkeeping but never polls.
func NewSampler(side string, src Source, clock clockwork.Clock, hz int, emit func(Reading)) *Sampler {
	var interval time.Duration
	if hz > 0 {
		interval = time.Second / time.Duration(hz)
	}
	if emit == nil {
		emit = func(Reading) {}
	}
	return &Sampler{side: side, src: src, clock: clock, interval: interval, emit: emit}
}

func (s *Sampler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Sampler) SetActive(on bool) {
	s.mu.Lock()
	if s.closed || on == s.active {
		s.mu.Unlock()
		return
	}
	s.active = on
	s.gen++
	if on {
		if s.interval > 0 {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			go s.run(ctx, s.gen)
		}
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	s.mu.Unlock()
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.emit(newReading(s.side, 0, false))
}

// Close stops polling for good.
func (s *Sampler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.active = false
	s.gen++
	s.stopLocked()
}

func (s *Sampler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.smooth.Reset()
	if r, ok := s.src.(interface{ Reset() }); ok {
		r.Reset()
	}
}

func (s *Sampler) run(ctx context.Context, gen uint64) {
	t := s.clock.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			if !s.sample(gen) {
				return
			}
		}
	}
}

// sample polls once and publishes the reading. It reports false once the gate
// this run belongs to has closed.
func (s *Sampler) sample(gen uint64) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}
	v := s.smooth.Apply(s.src.Level())
	s.mu.Unlock()
	s.emit(newReading(s.side, v, true))
	return true
}
