package testfixtures

import (
	"fmt"
	"sync"
	"time"

	"github.com/example/intranet-portal/internal/scheduler"
)

// Clock provides a controllable time source for tests. Calendar helpers
// (Today, SetSlot) read the clock in its location, which defaults to UTC.
type Clock struct {
	mu      sync.RWMutex
	current time.Time
	loc     *time.Location
}

// NewClock returns a clock initialised to the supplied time. When start is the
// zero value, the shared ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start, loc: time.UTC}
}

// In sets the location used by the calendar helpers and returns the clock.
func (c *Clock) In(loc *time.Location) *Clock {
	c.mu.Lock()
	defer c.mu.Unlock()
	if loc != nil {
		c.loc = loc
	}
	return c
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Current is an alias of Now used where a test only inspects the clock.
func (c *Clock) Current() time.Time {
	return c.Now()
}

// Set updates the clock to the provided time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by the provided duration and returns the
// updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// Today returns the clock's calendar date as YYYY-MM-DD.
func (c *Clock) Today() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.In(c.loc).Format("2006-01-02")
}

// DaysAhead returns the calendar date n days after Today.
func (c *Clock) DaysAhead(n int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.In(c.loc).AddDate(0, 0, n).Format("2006-01-02")
}

// SetSlot moves the clock to the start of a half-hour slot on date.
func (c *Clock) SetSlot(date, slot string) error {
	if !scheduler.IsSlot(slot) {
		return fmt.Errorf("%q is not a slot start", slot)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	day, err := scheduler.ParseDate(date, c.loc)
	if err != nil {
		return err
	}
	start, err := scheduler.SlotStart(day, slot)
	if err != nil {
		return err
	}
	c.current = start
	return nil
}
