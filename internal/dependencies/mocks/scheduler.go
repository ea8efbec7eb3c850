package mocks

import (
	"sync"
	"time"

	"github.com/spawnguard/spawnguard/internal/dependencies/scheduler"
)

// MockScheduler records scheduled tasks so tests can fire them manually
type MockScheduler struct {
	mu    sync.Mutex
	tasks []*MockTask
}

// MockTask is a task recorded by MockScheduler
type MockTask struct {
	Delay     time.Duration
	Period    time.Duration
	Repeating bool

	mu        sync.Mutex
	fn        func()
	cancelled bool
	fired     int
}

// Ensure the mocks implement the scheduler interfaces
var (
	_ scheduler.Scheduler = (*MockScheduler)(nil)
	_ scheduler.Handle    = (*MockTask)(nil)
)

// NewMockScheduler creates an empty MockScheduler
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

// ScheduleOnce records a one-shot task
func (s *MockScheduler) ScheduleOnce(delay time.Duration, fn func()) scheduler.Handle {
	task := &MockTask{Delay: delay, fn: fn}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return task
}

// ScheduleRepeating records a repeating task
func (s *MockScheduler) ScheduleRepeating(initialDelay, period time.Duration, fn func()) scheduler.Handle {
	task := &MockTask{Delay: initialDelay, Period: period, Repeating: true, fn: fn}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()
	return task
}

// Tasks returns all tasks ever scheduled, in scheduling order
func (s *MockScheduler) Tasks() []*MockTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*MockTask, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// OneShots returns the scheduled one-shot tasks
func (s *MockScheduler) OneShots() []*MockTask {
	return s.filter(false)
}

// Repeating returns the scheduled repeating tasks
func (s *MockScheduler) Repeating() []*MockTask {
	return s.filter(true)
}

// Pending returns the number of tasks that have not been cancelled
func (s *MockScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.Cancelled() {
			n++
		}
	}
	return n
}

func (s *MockScheduler) filter(repeating bool) []*MockTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*MockTask
	for _, t := range s.tasks {
		if t.Repeating == repeating {
			out = append(out, t)
		}
	}
	return out
}

// Cancel marks the task cancelled; subsequent Fire calls are no-ops
func (t *MockTask) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

// Cancelled reports whether the task has been cancelled
func (t *MockTask) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Fired returns how many times the task has fired
func (t *MockTask) Fired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Fire runs the task's callback unless it has been cancelled.
// One-shot tasks fire at most once.
func (t *MockTask) Fire() {
	t.mu.Lock()
	if t.cancelled || (!t.Repeating && t.fired > 0) {
		t.mu.Unlock()
		return
	}
	t.fired++
	fn := t.fn
	t.mu.Unlock()

	fn()
}
