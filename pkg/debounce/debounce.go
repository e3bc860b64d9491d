// Package debounce delays a value until its input has been quiet for an
// interval. Only the trailing edge fires.
package debounce

import (
	"sync"
	"time"
)

type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. [RealClock] is backed by [time.AfterFunc].
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var RealClock Clock = realClock{}

// A Debouncer holds a pending value and commits it to fn once no new value
// arrived for the configured delay.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	fn      func(T)
	timer   Timer
	pending T
	armed   bool
	gen     uint64
}

func New[T any](clock Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer[T]{clock: clock, delay: delay, fn: fn}
}

// Push records v and restarts the timer.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = v
	d.armed = true
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Flush commits the pending value now. It reports whether a value was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.pending
	d.armed = false
	d.timer = nil
	d.gen++
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Cancel drops the pending value without committing it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
	d.timer = nil
	d.gen++
}

func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.armed
}
