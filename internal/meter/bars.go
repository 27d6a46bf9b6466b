package meter

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const BarCount = 12

const (
	ColorIdle = "#d8dce0"
	ColorLow  = "limegreen"
	ColorMid  = "gold"
	ColorPeak = "red"
)

// Bars returns the colour of each segment of the 12-bar meter. Unlit bars
// are grey; lit bars are green, then gold from the halfway mark, then red for
// the last two.
func Bars(level float64, active bool) []string {
	lit := int(math.Round(clamp01(level) * BarCount))
	out := make([]string, BarCount)
	for i := range out {
		switch {
		case !active || i >= lit:
			out[i] = ColorIdle
		case float64(i)/BarCount < 6.0/12:
			out[i] = ColorLow
		case float64(i)/BarCount < 10.0/12:
			out[i] = ColorMid
		default:
			out[i] = ColorPeak
		}
	}
	return out
}

type stop struct {
	at  float64
	hex string
}

var fillStops = []stop{
	{0, "#dfe7ff"},
	{0.7, "#8fb6ff"},
	{0.9, "#ffcb7a"},
	{1, "#ff5a5a"},
}

// FillColor interpolates the single-bar fill colour for a level: blue through
// amber to red.
func FillColor(level float64) string {
	level = clamp01(level)
	for i := 1; i < len(fillStops); i++ {
		lo, hi := fillStops[i-1], fillStops[i]
		if level > hi.at {
			continue
		}
		a, _ := colorful.Hex(lo.hex)
		b, _ := colorful.Hex(hi.hex)
		t := (level - lo.at) / (hi.at - lo.at)
		return a.BlendRgb(b, t).Clamped().Hex()
	}
	return fillStops[len(fillStops)-1].hex
}
