package timer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/spawnguard/spawnguard/internal/dependencies/clock"
	"github.com/spawnguard/spawnguard/internal/dependencies/scheduler"
	"github.com/spawnguard/spawnguard/internal/model"
)

// ArmConfig describes the timer pair armed for one identity
type ArmConfig struct {
	// KickAfter is the delay before the one-shot kick callback fires
	KickAfter time.Duration
	// ReminderEvery is the cadence of the repeating reminder callback
	ReminderEvery time.Duration
	// OnKick fires once when the grace period expires
	OnKick func(id model.Identity)
	// OnReminder fires on each reminder tick with the elapsed time since arming
	OnReminder func(id model.Identity, elapsed time.Duration)
}

type timerPair struct {
	kick     scheduler.Handle
	reminder scheduler.Handle
	armedAt  time.Time
}

// Coordinator owns the kick/reminder timer pair per identity. It is pure
// mechanism: callbacks re-check session state themselves, the coordinator
// only guarantees at most one live pair per identity and idempotent cancel.
type Coordinator struct {
	scheduler scheduler.Scheduler
	clock     clock.Clock
	logger    *slog.Logger

	mu    sync.Mutex
	pairs map[model.Identity]*timerPair
}

// NewCoordinator creates a Coordinator over the given scheduler and clock
func NewCoordinator(sched scheduler.Scheduler, clk clock.Clock, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		scheduler: sched,
		clock:     clk,
		logger:    logger.With(slog.String("component", "timers")),
		pairs:     make(map[model.Identity]*timerPair),
	}
}

// Arm schedules the kick and reminder timers for the identity, cancelling
// any existing pair first.
func (c *Coordinator) Arm(id model.Identity, cfg ArmConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked(id)

	pair := &timerPair{armedAt: c.clock.Now()}

	pair.kick = c.scheduler.ScheduleOnce(cfg.KickAfter, func() {
		cfg.OnKick(id)
	})
	pair.reminder = c.scheduler.ScheduleRepeating(cfg.ReminderEvery, cfg.ReminderEvery, func() {
		cfg.OnReminder(id, c.clock.Now().Sub(pair.armedAt))
	})

	c.pairs[id] = pair

	c.logger.Debug("timers armed",
		slog.String("identity", string(id)),
		slog.Duration("kick_after", cfg.KickAfter),
		slog.Duration("reminder_every", cfg.ReminderEvery))
}

// Cancel cancels both timers for the identity. Safe to call when none
// exist, and safe to call repeatedly.
func (c *Coordinator) Cancel(id model.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked(id)
}

// cancelLocked nulls each handle immediately after cancelling so no path
// can cancel the same handle twice.
func (c *Coordinator) cancelLocked(id model.Identity) {
	pair, ok := c.pairs[id]
	if !ok {
		return
	}

	if pair.kick != nil {
		pair.kick.Cancel()
		pair.kick = nil
	}
	if pair.reminder != nil {
		pair.reminder.Cancel()
		pair.reminder = nil
	}
	delete(c.pairs, id)

	c.logger.Debug("timers cancelled", slog.String("identity", string(id)))
}

// Armed reports whether a live timer pair exists for the identity
func (c *Coordinator) Armed(id model.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pairs[id]
	return ok
}
