package htlctest

import (
	"sync"
	"time"

	"github.com/iov-one/htlc"
)

// Clock is a htlc.Clock whose time is set by the test.
type Clock struct {
	mu  sync.Mutex
	now htlc.UnixTime
}

var _ htlc.Clock = (*Clock)(nil)

// NewClock returns a clock showing given time.
func NewClock(now htlc.UnixTime) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Time()
}

// Set moves the clock to given time.
func (c *Clock) Set(now htlc.UnixTime) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
