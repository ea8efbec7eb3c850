package scheduler

import (
	"sync"
	"time"
)

// Handle refers to a scheduled task and allows cancelling it.
// Cancelling an already-fired or already-cancelled task is a no-op.
type Handle interface {
	Cancel()
}

// Scheduler abstracts the host's timer primitives so timer-driven logic can
// be tested without a real scheduler
type Scheduler interface {
	// ScheduleOnce runs fn once after delay
	ScheduleOnce(delay time.Duration, fn func()) Handle
	// ScheduleRepeating runs fn after initialDelay and then every period
	ScheduleRepeating(initialDelay, period time.Duration, fn func()) Handle
}

// RealScheduler implements Scheduler using runtime timers
type RealScheduler struct{}

// New creates a new RealScheduler
func New() *RealScheduler {
	return &RealScheduler{}
}

// Ensure RealScheduler implements Scheduler
var _ Scheduler = (*RealScheduler)(nil)

type onceHandle struct {
	timer *time.Timer
}

func (h *onceHandle) Cancel() {
	h.timer.Stop()
}

// ScheduleOnce runs fn once after delay on its own goroutine
func (s *RealScheduler) ScheduleOnce(delay time.Duration, fn func()) Handle {
	return &onceHandle{timer: time.AfterFunc(delay, fn)}
}

type repeatingHandle struct {
	stop chan struct{}
	once sync.Once
}

func (h *repeatingHandle) Cancel() {
	h.once.Do(func() { close(h.stop) })
}

// ScheduleRepeating runs fn after initialDelay and then on every period tick
// until the handle is cancelled
func (s *RealScheduler) ScheduleRepeating(initialDelay, period time.Duration, fn func()) Handle {
	h := &repeatingHandle{stop: make(chan struct{})}

	go func() {
		initial := time.NewTimer(initialDelay)
		defer initial.Stop()

		select {
		case <-initial.C:
		case <-h.stop:
			return
		}
		fn()

		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-h.stop:
				return
			}
		}
	}()

	return h
}
