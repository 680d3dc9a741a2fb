package animation

import (
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestFlashReturnsToBase(t *testing.T) {
	eff := flashEffect{base: "#000000", flash: "#FFFFFF", intervals: 2}

	tests := []struct {
		progress float64
		want     string
	}{
		{0, "#000000"},
		{0.25, "#FFFFFF"},
		{0.5, "#000000"},
		{0.75, "#FFFFFF"},
		{1, "#000000"},
	}
	for _, tc := range tests {
		if got := eff.colorAt(tc.progress); got != tc.want {
			t.Errorf("colorAt(%v) = %q, want %q", tc.progress, got, tc.want)
		}
	}
}

func TestFlashSingleInterval(t *testing.T) {
	eff := flashEffect{base: "#000000", flash: "#FFFFFF", intervals: 1}

	if got := eff.colorAt(0.5); got != "#FFFFFF" {
		t.Errorf("colorAt(0.5) = %q, want full flash color", got)
	}
	if got := eff.colorAt(1); got != "#000000" {
		t.Errorf("colorAt(1) = %q, want base", got)
	}
}

func TestFadeEndpointsAndMidpoint(t *testing.T) {
	eff := fadeEffect{from: "#112233", to: "#445566"}

	if got := eff.colorAt(0); got != "#112233" {
		t.Errorf("colorAt(0) = %q, want from color", got)
	}
	if got := eff.colorAt(1); got != "#445566" {
		t.Errorf("colorAt(1) = %q, want to color", got)
	}

	mid := fadeEffect{from: "#000000", to: "#FFFFFF"}
	if got := mid.colorAt(0.5); got != "#808080" {
		t.Errorf("colorAt(0.5) = %q, want #808080", got)
	}
}

func TestHueRotateSpacing(t *testing.T) {
	eff := hueRotateEffect{saturation: 1, lightness: 0.5}

	samples := []float64{0, 1.0 / 3.0, 2.0 / 3.0}
	var hues []float64
	seen := map[string]bool{}
	for _, p := range samples {
		hex := eff.colorAt(p)
		if seen[hex] {
			t.Fatalf("colorAt(%v) = %q repeats an earlier sample", p, hex)
		}
		seen[hex] = true

		c, err := colorful.Hex(hex)
		if err != nil {
			t.Fatalf("colorAt(%v) = %q does not parse: %v", p, hex, err)
		}
		h, _, _ := c.Hsl()
		hues = append(hues, h)
	}

	for i := 1; i < len(hues); i++ {
		spacing := hues[i] - hues[i-1]
		if math.Abs(spacing-120) > 2 {
			t.Errorf("hue spacing between samples %d and %d is %v, want about 120", i-1, i, spacing)
		}
	}
}

func TestHueRotateWrapsToStart(t *testing.T) {
	eff := hueRotateEffect{saturation: 1, lightness: 0.5}

	start := eff.colorAt(0)
	if start != "#FF0000" {
		t.Errorf("colorAt(0) = %q, want #FF0000", start)
	}
	if end := eff.colorAt(1); end != start {
		t.Errorf("colorAt(1) = %q, want the hue wheel to wrap back to %q", end, start)
	}
}

func TestProgress(t *testing.T) {
	d := 1000

	tests := []struct {
		elapsedMs int
		loop      bool
		want      float64
	}{
		{0, false, 0},
		{250, false, 0.25},
		{1000, false, 1},
		{1500, false, 1},
		{-10, false, 0},
		{250, true, 0.25},
		{1000, true, 0},
		{1250, true, 0.25},
		{2999, true, 0.999},
	}
	for _, tc := range tests {
		got := progress(msec(tc.elapsedMs), msec(d), tc.loop)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("progress(%dms, %dms, loop=%v) = %v, want %v", tc.elapsedMs, d, tc.loop, got, tc.want)
		}
	}
}
