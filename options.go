package deckctl

// DefaultFrameRate is the animation frame rate used when no option
// overrides it.
const DefaultFrameRate = 30

type options struct {
	frameRate        int
	onAnimationError func(error)
}

func defaultOptions() options {
	return options{frameRate: DefaultFrameRate}
}

// Option adjusts a Client.
type Option func(*options)

// WithFrameRate sets the animation frame rate. Values outside the
// engine's [1, 60] range are clamped.
func WithFrameRate(fps int) Option {
	return func(o *options) {
		o.frameRate = fps
	}
}

// WithAnimationErrorHandler installs an observer for animation frame
// delivery failures. Without one, failures are logged and the
// animations keep running.
func WithAnimationErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onAnimationError = fn
	}
}
