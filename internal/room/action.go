package room

import (
	"errors"
	"fmt"

	"skwabl/turns/internal/turn"
)

var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrInvalidDuration = errors.New("duration is not one of the offered slots")
)

// Action names accepted from screens.
const (
	ActionSelectDuration = "select_duration"
	ActionReset          = "reset"
	ActionToggle         = "toggle"
	ActionInterrupted    = "interrupted"
	ActionRequest        = "request"
	ActionRespond        = "respond"
)

// Action is one screen input decoded from the wire.
type Action struct {
	Type    string `json:"type"`
	Who     string `json:"who,omitempty"`
	Seconds int    `json:"seconds,omitempty"`
	Allow   bool   `json:"allow,omitempty"`
}

// Do validates and applies a screen action. Malformed input is an error; a
// well-formed action the timer ignores is not, it just reports applied=false.
func (r *Room) Do(a Action) (turn.View, bool, error) {
	switch a.Type {
	case ActionSelectDuration:
		if !turn.ValidDuration(a.Seconds) {
			return r.View(), false, fmt.Errorf("%w: %d", ErrInvalidDuration, a.Seconds)
		}
		v, ok := r.SelectDuration(a.Seconds)
		return v, ok, nil
	case ActionReset:
		v, ok := r.Reset()
		return v, ok, nil
	case ActionRespond:
		v, ok := r.RespondToRequest(a.Allow)
		return v, ok, nil
	case ActionToggle, ActionInterrupted, ActionRequest:
		who, err := turn.ParseSpeaker(a.Who)
		if err != nil {
			return r.View(), false, err
		}
		var (
			v  turn.View
			ok bool
		)
		switch a.Type {
		case ActionToggle:
			v, ok = r.ToggleActive(who)
		case ActionInterrupted:
			v, ok = r.MarkInterrupted(who)
		default:
			v, ok = r.RequestInterrupt(who)
		}
		return v, ok, nil
	}
	return r.View(), false, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}
