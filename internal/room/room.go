// Package room runs one turn timer for one screen. It owns the controller,
// the recurring one-second tick, the haptic queue and the level samplers, and
// publishes every change to the screen.
package room

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"skwabl/turns/internal/haptics"
	"skwabl/turns/internal/meter"
	"skwabl/turns/internal/turn"
	"skwabl/turns/internal/types"
)

// Publisher delivers room output to whoever renders it. State is published
// with the room lock held, so no method may block.
type Publisher interface {
	PublishState(roomID string, v turn.View)
	PublishPulse(roomID string, p haptics.Pulse)
	PublishLevel(roomID string, r meter.Reading)
}

// EventSink records room history.
type EventSink interface {
	AppendEvent(roomID, typ string, payload map[string]any) types.Event
}

type Options struct {
	SlotSeconds  int
	TickInterval time.Duration
	Clock        clockwork.Clock
	Publisher    Publisher
	Events       EventSink
	MeterHz      int
	// MeterSource builds the level source for a side. Nil uses a Synth.
	MeterSource func(side turn.Speaker) meter.Source
	Logger      zerolog.Logger
}

type Room struct {
	ID        string
	CreatedAt time.Time

	clock    clockwork.Clock
	interval time.Duration
	pub      Publisher
	events   EventSink
	log      zerolog.Logger

	ctrl   *turn.Controller
	pulses *haptics.Async
	meters map[turn.Speaker]*meter.Sampler

	mu         sync.Mutex
	tickCancel context.CancelFunc
	tickGen    uint64
	closed     bool
}

func New(id string, opts Options) *Room {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Events == nil {
		opts.Events = nopEvents{}
	}
	if opts.MeterSource == nil {
		opts.MeterSource = func(side turn.Speaker) meter.Source {
			return meter.NewSynth(opts.Clock.Now().UnixNano() + int64(side[0]))
		}
	}

	r := &Room{
		ID:        id,
		CreatedAt: opts.Clock.Now().UTC(),
		clock:     opts.Clock,
		interval:  opts.TickInterval,
		pub:       opts.Publisher,
		events:    opts.Events,
		log:       opts.Logger.With().Str("room_id", id).Logger(),
	}
	r.pulses = haptics.NewAsync(haptics.Func(r.deliverPulse), 32, r.log)
	r.ctrl = turn.New(opts.SlotSeconds, r.pulses)
	r.meters = make(map[turn.Speaker]*meter.Sampler, 2)
	for _, side := range []turn.Speaker{turn.A, turn.B} {
		r.meters[side] = meter.NewSampler(string(side), opts.MeterSource(side), opts.Clock, opts.MeterHz, r.publishLevel)
	}
	metricRooms.Inc()
	return r
}

func (r *Room) Info() types.RoomInfo {
	return types.RoomInfo{ID: r.ID, CreatedAt: r.CreatedAt}
}

func (r *Room) View() turn.View { return r.ctrl.View() }

// Ticking reports whether the recurring tick task is running.
func (r *Room) Ticking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickCancel != nil
}

// Close stops the tick task, the samplers and the haptic queue. It is safe to
// call more than once.
func (r *Room) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.stopTickerLocked()
	for _, m := range r.meters {
		m.Close()
	}
	r.mu.Unlock()
	r.pulses.Close()
	metricRooms.Dec()
	r.log.Debug().Msg("room closed")
}

func (r *Room) SelectDuration(seconds int) (turn.View, bool) {
	return r.apply("duration_selected", map[string]any{"seconds": seconds}, func() bool {
		return r.ctrl.SelectDuration(seconds)
	})
}

func (r *Room) Reset() (turn.View, bool) {
	return r.apply("reset", nil, r.ctrl.Reset)
}

func (r *Room) ToggleActive(who turn.Speaker) (turn.View, bool) {
	return r.apply("speaker_toggled", map[string]any{"who": string(who)}, func() bool {
		return r.ctrl.ToggleActive(who)
	})
}

func (r *Room) MarkInterrupted(who turn.Speaker) (turn.View, bool) {
	return r.apply("marked_interrupted", map[string]any{"who": string(who)}, func() bool {
		return r.ctrl.MarkInterrupted(who)
	})
}

func (r *Room) RequestInterrupt(who turn.Speaker) (turn.View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.ctrl.View(), false
	}
	reason := r.ctrl.Session().CanRequest(who)
	applied := r.ctrl.RequestInterrupt(who)
	v := r.ctrl.View()
	if applied {
		metricRequests.WithLabelValues("opened").Inc()
		r.events.AppendEvent(r.ID, "interrupt_requested", map[string]any{"who": string(who)})
		r.log.Info().Str("who", string(who)).Msg("interrupt requested")
		r.syncLocked(v)
		return v, true
	}
	metricRequests.WithLabelValues("rejected").Inc()
	payload := map[string]any{"who": string(who)}
	if reason != nil {
		payload["reason"] = reason.Error()
	}
	r.events.AppendEvent(r.ID, "interrupt_rejected", payload)
	r.log.Debug().Str("who", string(who)).AnErr("reason", reason).Msg("interrupt request ignored")
	return v, false
}

func (r *Room) RespondToRequest(allow bool) (turn.View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.ctrl.View(), false
	}
	before := r.ctrl.Session()
	applied := r.ctrl.RespondToRequest(allow)
	v := r.ctrl.View()
	if !applied {
		return v, false
	}
	outcome, typ := "denied", "interrupt_denied"
	switch {
	case before.Active == turn.None:
		outcome, typ = "cleared", "interrupt_cleared"
	case allow:
		outcome, typ = "allowed", "interrupt_allowed"
	}
	metricRequests.WithLabelValues(outcome).Inc()
	r.events.AppendEvent(r.ID, typ, map[string]any{
		"requester": string(before.Pending),
		"speaker":   string(before.Active),
	})
	r.log.Info().Str("requester", string(before.Pending)).Str("outcome", outcome).Msg("interrupt request resolved")
	r.syncLocked(v)
	return v, true
}

// apply runs one controller action under the room lock, then records and
// publishes the result.
func (r *Room) apply(event string, payload map[string]any, op func() bool) (turn.View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.ctrl.View(), false
	}
	applied := op()
	metricActions.WithLabelValues(event, boolLabel(applied)).Inc()
	v := r.ctrl.View()
	if !applied {
		return v, false
	}
	r.events.AppendEvent(r.ID, event, payload)
	r.syncLocked(v)
	return v, true
}

// syncLocked starts or stops the tick task and meter gates to match v, then
// publishes v.
func (r *Room) syncLocked(v turn.View) {
	switch {
	case v.Active != turn.None && r.tickCancel == nil:
		r.startTickerLocked()
	case v.Active == turn.None && r.tickCancel != nil:
		r.stopTickerLocked()
	}
	r.meters[turn.A].SetActive(v.MeterA)
	r.meters[turn.B].SetActive(v.MeterB)
	r.pub.PublishState(r.ID, v)
}

func (r *Room) startTickerLocked() {
	r.tickGen++
	ctx, cancel := context.WithCancel(context.Background())
	r.tickCancel = cancel
	go r.runTicker(ctx, r.tickGen)
	metricTickers.Inc()
	r.log.Debug().Msg("tick started")
}

func (r *Room) stopTickerLocked() {
	if r.tickCancel == nil {
		return
	}
	r.tickCancel()
	r.tickCancel = nil
	r.tickGen++
	metricTickers.Dec()
	r.log.Debug().Msg("tick stopped")
}

func (r *Room) runTicker(ctx context.Context, gen uint64) {
	t := r.clock.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			r.tick(gen)
		}
	}
}

func (r *Room) tick(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.tickGen {
		return
	}
	before := r.ctrl.Session()
	expired := r.ctrl.Tick()
	metricTicks.Inc()
	if expired != turn.None {
		metricExpiries.WithLabelValues(string(expired)).Inc()
		r.events.AppendEvent(r.ID, "time_expired", map[string]any{"who": string(expired)})
		r.log.Info().Str("who", string(expired)).Msg("time expired")
	}
	if r.ctrl.Session() == before {
		return
	}
	r.syncLocked(r.ctrl.View())
}

func (r *Room) deliverPulse(p haptics.Pulse) {
	r.pub.PublishPulse(r.ID, p)
	r.events.AppendEvent(r.ID, "haptic", map[string]any{"kind": string(p.Kind), "ms": p.Millis()})
}

func (r *Room) publishLevel(rd meter.Reading) {
	r.pub.PublishLevel(r.ID, rd)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type nopPublisher struct{}

func (nopPublisher) PublishState(string, turn.View)     {}
func (nopPublisher) PublishPulse(string, haptics.Pulse) {}
func (nopPublisher) PublishLevel(string, meter.Reading) {}

type nopEvents struct{}

func (nopEvents) AppendEvent(string, string, map[string]any) types.Event { return types.Event{} }
