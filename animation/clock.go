package animation

import "time"

// clock supplies the engine's notion of time. Tests substitute a fake
// to step animations deterministically.
type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
