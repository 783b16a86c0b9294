// Package task centralizes cancellation for timer-driven work. A Handle's
// Cancel both stops pending timers and marks any in-flight result as
// discarded, so each flow stage checks one guard instead of carrying its own
// timer handle plus boolean flag.
package task

import (
	"sync"
	"time"
)

// Runner schedules callbacks against a Clock.
type Runner struct {
	clock Clock
}

func NewRunner(clock Clock) *Runner {
	return &Runner{clock: clock}
}

func (r *Runner) Clock() Clock { return r.clock }

// Handle controls one scheduled task. Cancel is idempotent and safe from
// any goroutine.
type Handle struct {
	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
}

// NewHandle returns an unscheduled handle, for loops that own their timing
// but still want the shared cancel-and-suppress guard.
func NewHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Cancel stops future firings and suppresses a firing that is already
// resolving. Callbacks observe it through Cancelled.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return
	}
	h.cancelled = true
	close(h.done)
}

// Cancelled reports whether the handle was cancelled. Callbacks that mutate
// state after an awaited result must check this first; an in-flight
// response resolving after Cancel must have no effect.
func (h *Handle) Cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Done is closed on cancellation, for select loops.
func (h *Handle) Done() <-chan struct{} { return h.done }

// After runs fn once after d unless the handle is cancelled first.
func (r *Runner) After(d time.Duration, fn func()) *Handle {
	h := NewHandle()
	go func() {
		select {
		case <-h.done:
		case <-r.clock.After(d):
			if !h.Cancelled() {
				fn()
			}
		}
	}()
	return h
}

// Every runs fn each interval until cancelled. The first firing is one
// interval after the call. fn receives its own handle so a callback can stop
// the ticker; the handle is handed over before the goroutine starts, which
// keeps the callback off the caller's variable.
func (r *Runner) Every(interval time.Duration, fn func(h *Handle)) *Handle {
	h := NewHandle()
	go func() {
		for {
			select {
			case <-h.done:
				return
			case <-r.clock.After(interval):
				if h.Cancelled() {
					return
				}
				fn(h)
			}
		}
	}()
	return h
}
