package task

import (
	"sync"
	"time"
)

// Clock abstracts wall time so countdowns and poll intervals are testable
// without real sleeps.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Manual is a test clock advanced explicitly. Timers registered via After
// fire when Advance moves the clock past their deadline.
type Manual struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	waiters []*manualWaiter
}

type manualWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

func NewManual(start time.Time) *Manual {
	m := &Manual{now: start}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := &manualWaiter{deadline: m.now.Add(d), ch: make(chan time.Time, 1)}
	if d <= 0 {
		w.ch <- m.now
		return w.ch
	}
	m.waiters = append(m.waiters, w)
	m.cond.Broadcast()
	return w.ch
}

// Advance moves the clock forward and fires every timer whose deadline has
// been reached, in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)

	for {
		idx := -1
		for i, w := range m.waiters {
			if !w.deadline.After(m.now) && (idx == -1 || w.deadline.Before(m.waiters[idx].deadline)) {
				idx = i
			}
		}
		if idx == -1 {
			return
		}
		w := m.waiters[idx]
		m.waiters = append(m.waiters[:idx], m.waiters[idx+1:]...)
		w.ch <- m.now
	}
}

// AwaitWaiters blocks until at least n timers are pending. Tests call it
// before Advance so a concurrently running loop is actually parked on the
// clock when time moves.
func (m *Manual) AwaitWaiters(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.waiters) < n {
		m.cond.Wait()
	}
}
