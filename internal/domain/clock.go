package domain

import "github.com/jonboulle/clockwork"

// clock anchors "today" for the staleness and future-date gates. Production
// code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Today returns the current UTC calendar day.
func Today() Date {
	return DateOf(clock.Now())
}
