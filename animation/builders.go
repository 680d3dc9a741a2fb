package animation

import (
	"time"

	"github.com/flokli/deckctl/button"
	"github.com/flokli/deckctl/colorutil"
)

// FlashOptions configures a flash animation. Duration is required and
// must be positive, everything else has a usable default.
type FlashOptions struct {
	// Color is the color flashed towards, "#FFFFFF" when empty.
	Color string
	// Intervals is the number of pulses per cycle. 0 means 2,
	// values below 1 are raised to 1.
	Intervals int
	// Duration is the length of one cycle.
	Duration time.Duration
	// Loop repeats the cycle until the animation is stopped.
	Loop bool
	// While, when set, stops the animation as soon as the
	// predicate reports false.
	While Predicate
}

// FadeOptions configures a fade animation.
type FadeOptions struct {
	// From is the start color. When empty the base style's
	// background is used.
	From string
	// To is the end color, "#000000" when empty.
	To string

	Duration time.Duration
	Loop     bool
	While    Predicate
}

// HueRotateOptions configures a hue rotation. Callers normally set
// Loop, a finite hue rotation parks on its final hue.
type HueRotateOptions struct {
	// Saturation in [0, 1]. 0 means 1, a gray sweep is a constant
	// color and better expressed as a fade.
	Saturation float64
	// Lightness in [0, 1]. 0 means 0.5.
	Lightness float64

	Duration time.Duration
	Loop     bool
	While    Predicate
}

// Flash registers a flash animation on the button at addr. The base
// style supplies the background color the flash returns to between
// pulses.
func (e *Engine) Flash(addr button.Address, base button.Style, opts FlashOptions) (ID, error) {
	if opts.Color == "" {
		opts.Color = "#FFFFFF"
	}
	if opts.Intervals == 0 {
		opts.Intervals = 2
	}
	if opts.Intervals < 1 {
		opts.Intervals = 1
	}
	eff := flashEffect{
		base:      base.Background(),
		flash:     colorutil.Normalize(opts.Color),
		intervals: opts.Intervals,
	}
	return e.register(addr, eff, opts.Duration, opts.Loop, opts.While)
}

// Fade registers a linear fade on the button at addr.
func (e *Engine) Fade(addr button.Address, base button.Style, opts FadeOptions) (ID, error) {
	if opts.From == "" {
		opts.From = base.Background()
	}
	if opts.To == "" {
		opts.To = "#000000"
	}
	eff := fadeEffect{
		from: colorutil.Normalize(opts.From),
		to:   colorutil.Normalize(opts.To),
	}
	return e.register(addr, eff, opts.Duration, opts.Loop, opts.While)
}

// HueRotate registers a hue wheel sweep on the button at addr.
func (e *Engine) HueRotate(addr button.Address, opts HueRotateOptions) (ID, error) {
	if opts.Saturation == 0 {
		opts.Saturation = 1
	}
	if opts.Lightness == 0 {
		opts.Lightness = 0.5
	}
	eff := hueRotateEffect{
		saturation: opts.Saturation,
		lightness:  opts.Lightness,
	}
	return e.register(addr, eff, opts.Duration, opts.Loop, opts.While)
}
