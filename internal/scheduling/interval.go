package scheduling

import "time"

// Interval represents a half-open time interval [Start, Start+Duration).
type Interval struct {
	Start    time.Time
	Duration time.Duration
}

// End returns the exclusive end of the interval.
func (i Interval) End() time.Time {
	return i.Start.Add(i.Duration)
}

// Overlaps tells whether two intervals share any instant. Back-to-back intervals do
// not overlap: a session ending at 10:00 does not conflict with one starting at 10:00.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End()) && other.Start.Before(i.End())
}
