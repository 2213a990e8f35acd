package clock

import (
	"sync/atomic"
	"time"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

// Now returns the current time using the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// OffsetClock reports server time: the base clock shifted by an offset
// resolved once from a remote time source.
type OffsetClock struct {
	base   Clock
	offset atomic.Int64
	synced atomic.Bool
}

func NewOffsetClock(base Clock) *OffsetClock {
	if base == nil {
		base = RealClock{}
	}
	return &OffsetClock{base: base}
}

// Now returns base time plus the current offset.
func (c *OffsetClock) Now() time.Time {
	return c.base.Now().Add(time.Duration(c.offset.Load()))
}

func (c *OffsetClock) SetOffset(d time.Duration, synced bool) {
	c.offset.Store(int64(d))
	c.synced.Store(synced)
}

func (c *OffsetClock) Offset() time.Duration {
	return time.Duration(c.offset.Load())
}

// Synced reports whether the offset came from a successful fetch.
func (c *OffsetClock) Synced() bool {
	return c.synced.Load()
}
