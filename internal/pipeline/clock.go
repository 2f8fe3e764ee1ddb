package pipeline

import "github.com/jonboulle/clockwork"

// clock times runs and paces watch mode. Tests inject a fake to step through
// intervals without sleeping.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
