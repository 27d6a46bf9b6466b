// Package meter produces the decorative loudness readout shown above each
// speaker. Nothing here feeds back into the turn timer.
package meter

import (
	"math"
	"math/rand"
	"sync"
)

// Source yields an instantaneous loudness in [0,1].
type Source interface {
	Level() float64
}

// Synth is a stand-in for real microphone metering: a smooth VU-like curve
// with a little jitter.
type Synth struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	phase float64
}

const synthStep = 0.08

func NewSynth(seed int64) *Synth {
	return &Synth{rnd: rand.New(rand.NewSource(seed))}
}

func (s *Synth) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase += synthStep
	base := math.Abs(math.Sin(s.phase))
	jitter := (s.rnd.Float64() - 0.5) * 0.1
	return clamp01(base*0.85 + 0.1 + jitter)
}

func (s *Synth) Reset() {
	s.mu.Lock()
	s.phase = 0
	s.mu.Unlock()
}

// NormalizeDB maps a dBFS reading (roughly -100..0) onto [0,1].
func NormalizeDB(db float64) float64 {
	return clamp01((db + 100) / 100)
}

// DBSource adapts a dBFS reader, such as a native sound-level callback, to Source.
type DBSource func() float64

func (f DBSource) Level() float64 { return NormalizeDB(f()) }

// Smoother is an exponential filter weighted towards the newest sample.
type Smoother struct {
	prev float64
}

func (s *Smoother) Apply(v float64) float64 {
	s.prev = s.prev*0.3 + clamp01(v)*0.7
	return s.prev
}

func (s *Smoother) Reset() { s.prev = 0 }

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
