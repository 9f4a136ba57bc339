package scheduling

import "time"

// Clock provides the current time. The service reads "now" only through it, which
// keeps slot and calendar computations deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
