package exchange

import (
	"sync/atomic"
	"time"
)

// Clock supplies the ordering-sequence number deadlines are checked against.
// A deadline is a data value compared once at call entry, never a timer.
type Clock interface {
	Height() uint64
}

// ManualClock is a Clock advanced explicitly. Used by tests and batch drivers.
type ManualClock struct {
	height atomic.Uint64
}

// NewManualClock returns a manual clock positioned at start.
func NewManualClock(start uint64) *ManualClock {
	c := &ManualClock{}
	c.height.Store(start)
	return c
}

func (c *ManualClock) Height() uint64 { return c.height.Load() }

// Advance moves the clock forward by n heights.
func (c *ManualClock) Advance(n uint64) { c.height.Add(n) }

// Set positions the clock at an absolute height.
func (c *ManualClock) Set(h uint64) { c.height.Store(h) }

// IntervalClock derives a logical height from wall time: one height per
// interval elapsed since start.
type IntervalClock struct {
	start    time.Time
	interval time.Duration
	base     uint64
}

// NewIntervalClock returns a clock at height base that advances once per
// interval from now on.
func NewIntervalClock(base uint64, interval time.Duration) *IntervalClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &IntervalClock{start: time.Now(), interval: interval, base: base}
}

func (c *IntervalClock) Height() uint64 {
	return c.base + uint64(time.Since(c.start)/c.interval)
}
