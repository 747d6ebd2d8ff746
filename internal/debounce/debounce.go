// Package debounce coalesces bursts of triggers into a single call.
package debounce

import (
	"sync"
	"time"
)

// afterFunc is swapped in tests to fire timers by hand.
var afterFunc = time.AfterFunc

// Debouncer runs fn once the triggers have been quiet for delay.
type Debouncer struct {
	mu         sync.Mutex
	delay      time.Duration
	timer      *time.Timer
	generation uint64
	fn         func()
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Ensure returns *slot, creating the Debouncer first when it is nil.
func Ensure(slot **Debouncer, delay time.Duration, fn func()) *Debouncer {
	if *slot == nil {
		*slot = New(delay, fn)
	}
	return *slot
}

// Trigger restarts the quiet period. A timer that already fired but lost the
// race for the lock sees a newer generation and does nothing.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.generation++
	gen := d.generation
	d.timer = afterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	fn := d.fn
	d.mu.Unlock()
	fn()
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
