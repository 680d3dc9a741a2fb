package deckctl

import (
	"context"
	"fmt"

	"github.com/flokli/deckctl/animation"
	"github.com/flokli/deckctl/button"
)

// Button starts a fluent chain for the button at page/row/column.
//
//	c.Button(1, 2, 3).Text("REC").Background("#CC0000").Apply(ctx)
func (c *Client) Button(page, row, column int) *Button {
	return &Button{
		client: c,
		addr:   button.Address{Page: page, Row: row, Column: column},
	}
}

// ButtonAt starts a fluent chain for an already parsed address.
func (c *Client) ButtonAt(addr button.Address) *Button {
	return &Button{client: c, addr: addr}
}

// Button accumulates style fields and executes operations against one
// button. A chain is for one-shot use and not safe for concurrent
// mutation.
type Button struct {
	client *Client
	addr   button.Address
	style  button.Style
}

// Text sets the button label.
func (b *Button) Text(s string) *Button {
	b.style = b.style.WithText(s)
	return b
}

// Background sets the background color.
func (b *Button) Background(hex string) *Button {
	b.style = b.style.WithBackground(hex)
	return b
}

// TextColor sets the label color.
func (b *Button) TextColor(hex string) *Button {
	b.style = b.style.WithTextColor(hex)
	return b
}

// FontSize sets the label size in points.
func (b *Button) FontSize(px int) *Button {
	b.style = b.style.WithFontSize(px)
	return b
}

// MergeStyle folds an already built partial style into the chain.
// Fields set in s win over earlier chain calls.
func (b *Button) MergeStyle(s button.Style) *Button {
	b.style = b.style.Merge(s)
	return b
}

// Preset merges the named preset into the chain's style. Unknown
// names are ignored.
func (b *Button) Preset(name string) *Button {
	if p, ok := button.Preset(name); ok {
		b.style = b.style.Merge(p)
	}
	return b
}

// Style returns the chain's accumulated style.
func (b *Button) Style() button.Style {
	return b.style
}

// Apply pushes the accumulated style to the controller.
func (b *Button) Apply(ctx context.Context) error {
	if b.style.IsZero() {
		return fmt.Errorf("no style fields set for button %s", b.addr)
	}
	return b.client.SetStyle(ctx, b.addr, b.style)
}

// Press pushes and releases the button.
func (b *Button) Press(ctx context.Context) error {
	return b.client.Press(ctx, b.addr)
}

// Down pushes the button without releasing it.
func (b *Button) Down(ctx context.Context) error {
	return b.client.Down(ctx, b.addr)
}

// Up releases the button.
func (b *Button) Up(ctx context.Context) error {
	return b.client.Up(ctx, b.addr)
}

// RotateLeft turns the button's encoder counterclockwise.
func (b *Button) RotateLeft(ctx context.Context) error {
	return b.client.RotateLeft(ctx, b.addr)
}

// RotateRight turns the button's encoder clockwise.
func (b *Button) RotateRight(ctx context.Context) error {
	return b.client.RotateRight(ctx, b.addr)
}

// Flash starts a flash animation. The chain's accumulated style is the
// base the flash returns to; only its background color is animated,
// call Apply first to push text or size changes.
func (b *Button) Flash(opts animation.FlashOptions) (*AnimationHandle, error) {
	id, err := b.client.engine.Flash(b.addr, b.style, opts)
	if err != nil {
		return nil, err
	}
	return &AnimationHandle{id: id, engine: b.client.engine}, nil
}

// Fade starts a fade animation using the chain's style as base.
func (b *Button) Fade(opts animation.FadeOptions) (*AnimationHandle, error) {
	id, err := b.client.engine.Fade(b.addr, b.style, opts)
	if err != nil {
		return nil, err
	}
	return &AnimationHandle{id: id, engine: b.client.engine}, nil
}

// HueRotate starts a hue wheel sweep.
func (b *Button) HueRotate(opts animation.HueRotateOptions) (*AnimationHandle, error) {
	id, err := b.client.engine.HueRotate(b.addr, opts)
	if err != nil {
		return nil, err
	}
	return &AnimationHandle{id: id, engine: b.client.engine}, nil
}
