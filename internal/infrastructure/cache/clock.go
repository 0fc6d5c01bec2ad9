package cache

import "time"

// Clock abstracts wall-clock access so TTL behavior is testable with a fake
// clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return realClock{} }
