// Package turn holds the turn-taking timer for two speakers: per-side
// countdowns, a bounded supply of interrupt tokens, and a single outstanding
// interrupt request that the active speaker allows or denies.
//
// Invalid actions are silent no-ops. Every mutating method reports whether it
// changed anything so hosts can log without diffing snapshots.
package turn

import (
	"sync"

	"skwabl/turns/internal/haptics"
)

type Controller struct {
	mu      sync.Mutex
	s       Session
	haptics haptics.Vibrator
}

// New returns a controller in the initial configuration. A nil vibrator
// discards pulses.
func New(slotSeconds int, v haptics.Vibrator) *Controller {
	if !ValidDuration(slotSeconds) {
		slotSeconds = DefaultDuration
	}
	if v == nil {
		v = haptics.Func(func(haptics.Pulse) {})
	}
	return &Controller{s: NewSession(slotSeconds), haptics: v}
}

// Session returns a copy of the current state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

func (c *Controller) View() View {
	return c.Session().View()
}

// SelectDuration reinitialises the whole session with a new slot length.
func (c *Controller) SelectDuration(seconds int) bool {
	if !ValidDuration(seconds) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = NewSession(seconds)
	return true
}

// Reset returns to the initial configuration, keeping the slot length and
// discarding any pending request.
func (c *Controller) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = NewSession(c.s.SlotSeconds)
	return true
}

// ToggleActive pauses who if they hold the floor, otherwise gives it to them.
// Handing the floor to the side with the pending request withdraws that
// request without spending a token.
func (c *Controller) ToggleActive(who Speaker) bool {
	if !who.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Active == who {
		c.s.Active = None
		return true
	}
	c.s.Active = who
	if c.s.Pending == who {
		c.s.Pending = None
	}
	return true
}

// Tick consumes one second from the active side. It returns the side whose
// time ran out on this tick, or None.
func (c *Controller) Tick() Speaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Pending != None || c.s.Active == None {
		return None
	}
	who := c.s.Active
	rem := c.s.remaining(who)
	if *rem <= 0 {
		// Already exhausted before this tick; expiry fired when it hit zero.
		*rem = 0
		return None
	}
	*rem--
	if *rem == 0 {
		c.s.Active = None
		c.haptics.Vibrate(haptics.Long)
		return who
	}
	return None
}

// MarkInterrupted gives who a fresh slot. Nothing else changes.
func (c *Controller) MarkInterrupted(who Speaker) bool {
	if !who.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.s.remaining(who) = c.s.SlotSeconds
	c.haptics.Vibrate(haptics.Short)
	return true
}

// RequestInterrupt opens a request from who. It is refused when who holds the
// floor, another request is open, or who has no tokens left. The token is
// only spent if the request is allowed.
func (c *Controller) RequestInterrupt(who Speaker) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.CanRequest(who) != nil {
		return false
	}
	c.s.Pending = who
	c.haptics.Vibrate(haptics.Short)
	return true
}

// RespondToRequest resolves the open request. On allow the requester spends a
// token, the outgoing speaker's clock is refilled and the floor changes hands.
// On deny nothing but the request changes. The request is cleared first, so
// with no speaker active either answer just closes it.
func (c *Controller) RespondToRequest(allow bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Pending == None {
		return false
	}
	requester := c.s.Pending
	c.s.Pending = None
	if !allow || c.s.Active == None {
		return true
	}
	if t := c.s.tokens(requester); *t > 0 {
		*t--
	}
	*c.s.remaining(c.s.Active) = c.s.SlotSeconds
	c.s.Active = requester
	c.haptics.Vibrate(haptics.Medium)
	return true
}
