package snapshot

import (
	"log/slog"

	"github.com/spawnguard/spawnguard/internal/dependencies/clock"
	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/presenter"
	"github.com/spawnguard/spawnguard/internal/services/session"
)

// Manager captures an entity's transient presentation state on gate-entry
// and restores it on gate-exit. The captured snapshot lives on the session,
// so restore-after-disconnect races resolve to a no-op.
type Manager struct {
	presenter presenter.Presenter
	registry  *session.Registry
	clock     clock.Clock
	logger    *slog.Logger
}

// NewManager creates a snapshot Manager
func NewManager(p presenter.Presenter, registry *session.Registry, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		presenter: p,
		registry:  registry,
		clock:     clk,
		logger:    logger.With(slog.String("component", "snapshot")),
	}
}

// Capture records the entity's current state onto its session and freezes
// the entity in place. An entity no longer present captures nothing.
func (m *Manager) Capture(id model.Identity) (*model.Snapshot, error) {
	state, ok := m.presenter.TransientState(id)
	if !ok {
		m.logger.Warn("capture skipped - entity not present", slog.String("identity", string(id)))
		return nil, nil
	}

	snap := &model.Snapshot{
		State:      state,
		CapturedAt: m.clock.Now(),
	}

	if err := m.registry.SetSnapshot(id, snap); err != nil {
		return nil, err
	}

	m.presenter.SetFrozen(id, true)

	m.logger.Debug("state captured", slog.String("identity", string(id)))
	return snap, nil
}

// Restore re-applies the session's snapshot and unfreezes the entity.
// The snapshot is consumed: a second call finds none and does nothing.
func (m *Manager) Restore(id model.Identity) error {
	snap, err := m.registry.TakeSnapshot(id)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	if !m.presenter.SetTransientState(id, snap.State) {
		m.logger.Warn("restore skipped - entity not present", slog.String("identity", string(id)))
		return nil
	}
	m.presenter.SetFrozen(id, false)

	m.logger.Debug("state restored", slog.String("identity", string(id)))
	return nil
}

// Discard drops the session's snapshot unrestored, for entities that leave
// before authenticating. Safe when no snapshot or no session exists.
func (m *Manager) Discard(id model.Identity) {
	snap, err := m.registry.TakeSnapshot(id)
	if err != nil || snap == nil {
		return
	}
	m.logger.Debug("state discarded", slog.String("identity", string(id)))
}
