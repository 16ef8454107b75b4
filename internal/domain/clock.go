package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps RunInfo. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by NewRunInfo. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now reads the package clock.
func Now() time.Time { return clock.Now() }
