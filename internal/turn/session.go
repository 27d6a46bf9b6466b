package turn

import (
	"errors"
	"fmt"
	"strings"
)

// Speaker identifies one side of the conversation. The zero value is None.
type Speaker string

const (
	None Speaker = ""
	A    Speaker = "A"
	B    Speaker = "B"
)

const (
	MaxTokens       = 5
	DefaultDuration = 120
)

// Durations is the fixed set of slot lengths a screen may offer, in seconds.
var Durations = []int{60, 120, 180, 300}

var (
	ErrInvalidSpeaker = errors.New("speaker must be A or B")

	ErrRequestSelf    = errors.New("active speaker cannot request the floor")
	ErrRequestPending = errors.New("another interrupt request is pending")
	ErrNoTokens       = errors.New("no interrupt tokens left")
)

// ParseSpeaker accepts "A" or "B" in either case.
func ParseSpeaker(s string) (Speaker, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return A, nil
	case "B":
		return B, nil
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidSpeaker, s)
}

// Other returns the opposite side. None has no opposite.
func (s Speaker) Other() Speaker {
	switch s {
	case A:
		return B
	case B:
		return A
	}
	return None
}

func (s Speaker) Valid() bool { return s == A || s == B }

func ValidDuration(seconds int) bool {
	for _, d := range Durations {
		if d == seconds {
			return true
		}
	}
	return false
}

// Session is the whole mutable state of one two-party timer.
type Session struct {
	SlotSeconds int
	RemainingA  int
	RemainingB  int
	Active      Speaker
	TokensA     int
	TokensB     int
	Pending     Speaker
}

// NewSession returns a session in its initial configuration for the given slot length.
func NewSession(slotSeconds int) Session {
	return Session{
		SlotSeconds: slotSeconds,
		RemainingA:  slotSeconds,
		RemainingB:  slotSeconds,
		TokensA:     MaxTokens,
		TokensB:     MaxTokens,
	}
}

func (s *Session) remaining(who Speaker) *int {
	if who == A {
		return &s.RemainingA
	}
	return &s.RemainingB
}

func (s *Session) tokens(who Speaker) *int {
	if who == A {
		return &s.TokensA
	}
	return &s.TokensB
}

// CanRequest reports why who may not open an interrupt request, or nil.
func (s Session) CanRequest(who Speaker) error {
	switch {
	case !who.Valid():
		return ErrInvalidSpeaker
	case who == s.Active:
		return ErrRequestSelf
	case s.Pending != None:
		return ErrRequestPending
	case *s.tokens(who) <= 0:
		return ErrNoTokens
	}
	return nil
}
