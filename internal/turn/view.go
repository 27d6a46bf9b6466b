package turn

import (
	"fmt"
	"math"
)

// View is the render-ready snapshot handed to a screen.
type View struct {
	SlotSeconds int             `json:"slot_seconds"`
	RemainingA  int             `json:"remaining_a"`
	RemainingB  int             `json:"remaining_b"`
	ClockA      string          `json:"clock_a"`
	ClockB      string          `json:"clock_b"`
	Active      Speaker         `json:"active"`
	TokensA     int             `json:"tokens_a"`
	TokensB     int             `json:"tokens_b"`
	Pending     Speaker         `json:"pending_request"`
	Frozen      bool            `json:"frozen"`
	MeterA      bool            `json:"meter_a"`
	MeterB      bool            `json:"meter_b"`
	Durations   []DurationLabel `json:"durations"`
}

type DurationLabel struct {
	Seconds  int    `json:"seconds"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

func (s Session) View() View {
	labels := make([]DurationLabel, 0, len(Durations))
	for _, d := range Durations {
		labels = append(labels, DurationLabel{
			Seconds:  d,
			Label:    fmt.Sprintf("%d min", int(math.Round(float64(d)/60))),
			Selected: d == s.SlotSeconds,
		})
	}
	return View{
		SlotSeconds: s.SlotSeconds,
		RemainingA:  s.RemainingA,
		RemainingB:  s.RemainingB,
		ClockA:      FormatClock(s.RemainingA),
		ClockB:      FormatClock(s.RemainingB),
		Active:      s.Active,
		TokensA:     s.TokensA,
		TokensB:     s.TokensB,
		Pending:     s.Pending,
		Frozen:      s.Pending != None,
		MeterA:      s.Active == A,
		MeterB:      s.Active == B,
		Durations:   labels,
	}
}

// FormatClock renders seconds as m:ss. There is no hour component, so 3725
// renders as "62:05".
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
