package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package time source for days-since-onset and report dates.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// today returns the current UTC calendar date at midnight.
func today() time.Time {
	y, m, d := clock.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
