package application

import "time"

// Clock is injected so record timestamps can be fixed in tests
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, backed by time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
