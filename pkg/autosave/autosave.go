// Package autosave debounces rapid value changes into a single write.
// The UI emits a change per keystroke; the debouncer waits for a quiet
// period and forwards only the latest value, so the backend sees one
// write per editing pause instead of one per key press.
package autosave

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the recommended pause before a pending value is
// emitted.
const DefaultQuietPeriod = time.Second

// Debouncer is a two-state machine: idle, or pending with a running
// timer. A change moves idle to pending; another change while pending
// restarts the timer; the timer firing emits the latest value and
// returns to idle. Stop cancels any pending emission synchronously and
// permanently: once Stop returns nothing is ever emitted.
//
// The emit callback runs with the debouncer's lock held so Stop can
// guarantee that; it must not call back into the Debouncer.
type Debouncer struct {
	mu      sync.Mutex
	quiet   time.Duration
	emit    func(v any)
	timer   *time.Timer
	value   any
	pending bool
	stopped bool
}

// New returns a Debouncer forwarding values to emit after quiet. A
// non-positive quiet falls back to DefaultQuietPeriod.
func New(quiet time.Duration, emit func(v any)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{quiet: quiet, emit: emit}
}

// Notify records a changed value and (re)starts the quiet-period timer.
// Calls after Stop are ignored.
func (d *Debouncer) Notify(v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.value = v
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.quiet, d.fire)
		return
	}
	d.timer.Reset(d.quiet)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emitLocked()
}

// Flush emits a pending value immediately, bypassing the timer. Used
// when the caller wants an explicit save (e.g. a submit button).
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.emitLocked()
}

func (d *Debouncer) emitLocked() {
	if d.stopped || !d.pending {
		return
	}
	v := d.value
	d.pending = false
	d.value = nil
	d.emit(v)
}

// Stop cancels any pending emission and disables the debouncer. It is
// safe to call multiple times and must be called on teardown of the
// observing scope.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	d.value = nil
	if d.timer != nil {
		d.timer.Stop()
	}
}
