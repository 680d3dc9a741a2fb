package animation

import (
	"math"

	"github.com/flokli/deckctl/colorutil"
)

// effect computes the background color for a normalized progress value
// in [0, 1]. Implementations are pure value types, safe to call from
// any goroutine.
type effect interface {
	colorAt(progress float64) string
	kind() string
}

// flashEffect oscillates between the base background and the flash
// color, completing `intervals` full pulses per cycle. The blend factor
// is sin²(π·intervals·progress), so the color sits exactly on the base
// at progress 0 and 1.
type flashEffect struct {
	base      string
	flash     string
	intervals int
}

func (f flashEffect) colorAt(p float64) string {
	s := math.Sin(math.Pi * float64(f.intervals) * p)
	return colorutil.Mix(f.base, f.flash, s*s)
}

func (f flashEffect) kind() string { return "flash" }

// fadeEffect interpolates linearly from one color to the other. A
// looping fade wraps straight back to the start color at the cycle
// boundary, it is not smoothed into a ping-pong.
type fadeEffect struct {
	from string
	to   string
}

func (f fadeEffect) colorAt(p float64) string {
	return colorutil.Mix(f.from, f.to, p)
}

func (f fadeEffect) kind() string { return "fade" }

// hueRotateEffect sweeps the hue wheel once per cycle at fixed
// saturation and lightness.
type hueRotateEffect struct {
	saturation float64
	lightness  float64
}

func (h hueRotateEffect) colorAt(p float64) string {
	hue := math.Floor(p * 360)
	return colorutil.HSLToHex(hue, h.saturation, h.lightness)
}

func (h hueRotateEffect) kind() string { return "hue-rotate" }
