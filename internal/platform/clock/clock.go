package clock

import "time"

// Clock is the only source of "now" for timer math.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// WholeSeconds returns the whole seconds from start to end, never negative.
// A zero start means the interval never began.
func WholeSeconds(start, end time.Time) int {
	if start.IsZero() || !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Second)
}
