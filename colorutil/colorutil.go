// Package colorutil implements the color math used by button styles and
// the animation engine: hex parsing, linear mixing and HSL conversion.
//
// All functions are total. Malformed color strings never produce errors
// on interpolation paths; they degrade to black so a bad caller input can
// not crash a running animation.
package colorutil

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit color triple, decoupled from the wire form.
type RGB struct {
	R, G, B uint8
}

// Hex encodes the triple in the canonical wire form: uppercase, six
// digits, leading '#'.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB) color() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// ParseHex parses "#RRGGBB" or "RRGGBB", case-insensitive. The second
// return value is false for any other shape (including the short "#RGB"
// form, which the controller does not accept).
func ParseHex(s string) (RGB, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 6 && s[0] != '#' {
		s = "#" + s
	}
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, false
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, true
}

// RGBToHex clamps each channel to [0,255], rounds half-up and encodes.
func RGBToHex(r, g, b float64) string {
	return RGB{clampChannel(r), clampChannel(g), clampChannel(b)}.Hex()
}

func clampChannel(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// Mix linearly interpolates between two hex colors in RGB space.
// t is clamped to [0,1]; unparsable inputs count as black. Channels are
// rounded half-up, so Mix("#000000", "#FFFFFF", 0.5) is "#808080".
func Mix(hexA, hexB string, t float64) string {
	if t <= 0 {
		t = 0
	} else if t >= 1 {
		t = 1
	}
	a, _ := ParseHex(hexA) // zero value is black
	b, _ := ParseHex(hexB)
	m := a.color().BlendRgb(b.color(), t)
	r, g, bb := m.RGB255()
	return RGB{r, g, bb}.Hex()
}

// HSLToHex converts an HSL triple to the canonical hex form. Hue is in
// degrees and taken modulo 360; saturation and lightness are clamped to
// [0,1].
func HSLToHex(hue, saturation, lightness float64) string {
	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	r, g, b := colorful.Hsl(hue, clampUnit(saturation), clampUnit(lightness)).Clamped().RGB255()
	return RGB{r, g, b}.Hex()
}

func clampUnit(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return v
}

// Normalize returns the canonical "#RRGGBB" form when s parses as a
// color, otherwise the trimmed input uppercased. Output of the library's
// own color functions is already canonical.
func Normalize(s string) string {
	if c, ok := ParseHex(s); ok {
		return c.Hex()
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// Equal reports whether two color strings denote the same color after
// normalization. This is string equality, not perceptual distance; it is
// what the engine uses to suppress redundant frame writes.
func Equal(hexA, hexB string) bool {
	return Normalize(hexA) == Normalize(hexB)
}
