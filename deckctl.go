// Package deckctl is a client library for remotely controlling
// button-surface applications that expose an HTTP, TCP or UDP remote
// control API. It wraps a wire transport with per-endpoint methods, a
// fluent button builder and a tick driven animation engine for
// flashes, fades and hue sweeps.
//
//	t, err := rest.New("http://127.0.0.1:8888")
//	if err != nil { ... }
//	c := deckctl.New(t)
//	defer c.Close()
//
//	c.Button(1, 2, 3).Text("GO").Background("#00CC00").Apply(ctx)
//	c.Button(1, 2, 3).Press(ctx)
package deckctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/flokli/deckctl/animation"
	"github.com/flokli/deckctl/button"
)

// ErrNotSupported is returned for operations the configured transport
// cannot perform, such as reading variables over the text protocol.
var ErrNotSupported = errors.New("operation not supported by this transport")

// Transport executes controller operations over one wire protocol.
// rest.Client and socket.Client implement it.
type Transport interface {
	Press(ctx context.Context, addr button.Address) error
	Down(ctx context.Context, addr button.Address) error
	Up(ctx context.Context, addr button.Address) error
	RotateLeft(ctx context.Context, addr button.Address) error
	RotateRight(ctx context.Context, addr button.Address) error
	SetStyle(ctx context.Context, addr button.Address, style button.Style) error
	SetCustomVariable(ctx context.Context, name, value string) error
	ApplyStyles(ctx context.Context, updates []animation.StyleUpdate) error
	Close() error
}

// VariableReader is the optional read side of a transport. The HTTP
// API can read custom variables back, the text protocol cannot.
type VariableReader interface {
	CustomVariable(ctx context.Context, name string) (string, error)
}

// Client is the controller facade. It is safe for concurrent use.
type Client struct {
	transport Transport
	engine    *animation.Engine
}

// New wraps a transport in a client. Animations dispatch through the
// same transport.
func New(t Transport, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client{
		transport: t,
		engine:    animation.New(t, o.frameRate),
	}
	if o.onAnimationError != nil {
		c.engine.SetErrorHandler(o.onAnimationError)
	}
	return c
}

// Press pushes and releases the button at addr.
func (c *Client) Press(ctx context.Context, addr button.Address) error {
	return c.transport.Press(ctx, addr)
}

// Down pushes the button at addr without releasing it.
func (c *Client) Down(ctx context.Context, addr button.Address) error {
	return c.transport.Down(ctx, addr)
}

// Up releases the button at addr.
func (c *Client) Up(ctx context.Context, addr button.Address) error {
	return c.transport.Up(ctx, addr)
}

// RotateLeft turns the encoder at addr counterclockwise.
func (c *Client) RotateLeft(ctx context.Context, addr button.Address) error {
	return c.transport.RotateLeft(ctx, addr)
}

// RotateRight turns the encoder at addr clockwise.
func (c *Client) RotateRight(ctx context.Context, addr button.Address) error {
	return c.transport.RotateRight(ctx, addr)
}

// SetStyle applies the set fields of style to the button at addr.
func (c *Client) SetStyle(ctx context.Context, addr button.Address, style button.Style) error {
	return c.transport.SetStyle(ctx, addr, style)
}

// SetCustomVariable assigns value to the named custom variable.
func (c *Client) SetCustomVariable(ctx context.Context, name, value string) error {
	return c.transport.SetCustomVariable(ctx, name, value)
}

// CustomVariable reads the named custom variable. Transports without a
// read path return ErrNotSupported.
func (c *Client) CustomVariable(ctx context.Context, name string) (string, error) {
	r, ok := c.transport.(VariableReader)
	if !ok {
		return "", fmt.Errorf("unable to read custom variable %q: %w", name, ErrNotSupported)
	}
	return r.CustomVariable(ctx, name)
}

// StopAnimation stops one animation. Unknown handles and repeated
// stops are no-ops.
func (c *Client) StopAnimation(id animation.ID) {
	c.engine.Stop(id)
}

// StopAllAnimations stops every running animation.
func (c *Client) StopAllAnimations() {
	c.engine.StopAll()
}

// ActiveAnimations returns the number of currently running animations.
func (c *Client) ActiveAnimations() int {
	return c.engine.Active()
}

// Close stops all animations, waits for in-flight frames and closes
// the transport.
func (c *Client) Close() error {
	c.engine.Close()
	return c.transport.Close()
}

// AnimationHandle refers to one running animation.
type AnimationHandle struct {
	id     animation.ID
	engine *animation.Engine
}

// ID returns the engine's identifier for this animation.
func (h *AnimationHandle) ID() animation.ID {
	return h.id
}

// Stop ends the animation and its predicate polling. Safe to call any
// number of times, even after the animation finished on its own.
func (h *AnimationHandle) Stop() {
	h.engine.Stop(h.id)
}
