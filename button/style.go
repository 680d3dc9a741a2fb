// Package button defines the value types shared by every transport and by
// the animation engine: grid addresses and partial style updates.
package button

import (
	"github.com/flokli/deckctl/colorutil"
)

// Style describes the visual attributes of a button.
// It is a partial update: only non-nil fields are applied, nil fields
// never overwrite existing remote state. The JSON tags match the
// controller's HTTP API.
type Style struct {
	Text            *string `json:"text,omitempty" yaml:"text,omitempty"`
	BackgroundColor *string `json:"bgcolor,omitempty" yaml:"bgcolor,omitempty"`
	TextColor       *string `json:"color,omitempty" yaml:"color,omitempty"`
	FontSize        *int    `json:"size,omitempty" yaml:"size,omitempty"`
}

// WithText returns a copy of the style with the text set.
func (s Style) WithText(text string) Style {
	s.Text = &text
	return s
}

// WithBackground returns a copy of the style with the background color
// set, normalized to the canonical "#RRGGBB" form.
func (s Style) WithBackground(hex string) Style {
	n := colorutil.Normalize(hex)
	s.BackgroundColor = &n
	return s
}

// WithTextColor returns a copy of the style with the text color set,
// normalized to the canonical "#RRGGBB" form.
func (s Style) WithTextColor(hex string) Style {
	n := colorutil.Normalize(hex)
	s.TextColor = &n
	return s
}

// WithFontSize returns a copy of the style with the font size set.
func (s Style) WithFontSize(px int) Style {
	s.FontSize = &px
	return s
}

// Merge returns the union of s and o. Fields set in o win.
func (s Style) Merge(o Style) Style {
	out := s.Clone()
	if o.Text != nil {
		out = out.WithText(*o.Text)
	}
	if o.BackgroundColor != nil {
		out = out.WithBackground(*o.BackgroundColor)
	}
	if o.TextColor != nil {
		out = out.WithTextColor(*o.TextColor)
	}
	if o.FontSize != nil {
		out = out.WithFontSize(*o.FontSize)
	}
	return out
}

// Clone returns a deep copy, so callers mutating the original's fields
// through retained pointers cannot affect the copy.
func (s Style) Clone() Style {
	var out Style
	if s.Text != nil {
		out = out.WithText(*s.Text)
	}
	if s.BackgroundColor != nil {
		out = out.WithBackground(*s.BackgroundColor)
	}
	if s.TextColor != nil {
		out = out.WithTextColor(*s.TextColor)
	}
	if s.FontSize != nil {
		out = out.WithFontSize(*s.FontSize)
	}
	return out
}

// IsZero reports whether no field is set.
func (s Style) IsZero() bool {
	return s.Text == nil && s.BackgroundColor == nil && s.TextColor == nil && s.FontSize == nil
}

// Background returns the background color, or "" when unset.
func (s Style) Background() string {
	if s.BackgroundColor == nil {
		return ""
	}
	return *s.BackgroundColor
}
