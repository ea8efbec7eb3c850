package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/spawnguard/spawnguard/internal/dependencies/mocks"
	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/services/session"
	"github.com/spawnguard/spawnguard/internal/testutil"
	"github.com/spawnguard/spawnguard/internal/world"
)

type ManagerSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	world    *world.World
	registry *session.Registry
	manager  *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.world = world.New(testutil.NopLogger())
	s.registry = session.NewRegistry(s.clock)
	s.manager = NewManager(s.world, s.registry, s.clock, testutil.NopLogger())
}

func (s *ManagerSuite) state() model.TransientState {
	return model.TransientState{
		Position:  model.Position{X: 10, Y: 64, Z: -3},
		Yaw:       180,
		Pitch:     -30,
		HeldItems: []string{"sword"},
	}
}

func (s *ManagerSuite) spawnGated(id model.Identity) {
	s.world.Spawn(id, s.state())
	_, err := s.registry.Create(id)
	s.Require().NoError(err)
}

func (s *ManagerSuite) TestCaptureRecordsStateAndFreezes() {
	s.spawnGated("entity-1")

	snap, err := s.manager.Capture("entity-1")
	s.Require().NoError(err)
	s.Require().NotNil(snap)
	s.Equal(s.state(), snap.State)
	s.Equal(s.clock.Now(), snap.CapturedAt)
	s.True(s.world.Frozen("entity-1"))

	stored, err := s.registry.Get("entity-1")
	s.Require().NoError(err)
	s.Require().NotNil(stored.Snapshot)
	s.Equal(s.state(), stored.Snapshot.State)
}

func (s *ManagerSuite) TestCaptureAbsentEntityIsNoop() {
	_, err := s.registry.Create("ghost")
	s.Require().NoError(err)

	snap, err := s.manager.Capture("ghost")
	s.Require().NoError(err)
	s.Nil(snap)
}

func (s *ManagerSuite) TestCaptureWithoutSession() {
	s.world.Spawn("entity-1", s.state())

	_, err := s.manager.Capture("entity-1")
	s.ErrorIs(err, model.ErrNoSession)
}

func (s *ManagerSuite) TestCaptureRestoreRoundTrip() {
	s.spawnGated("entity-1")

	before, ok := s.world.TransientState("entity-1")
	s.Require().True(ok)

	_, err := s.manager.Capture("entity-1")
	s.Require().NoError(err)

	// Entity drifts while gated
	s.world.SetTransientState("entity-1", model.TransientState{
		Position: model.Position{X: 999},
	})

	s.Require().NoError(s.manager.Restore("entity-1"))

	after, ok := s.world.TransientState("entity-1")
	s.Require().True(ok)
	s.Equal(before, after)
	s.False(s.world.Frozen("entity-1"))
}

func (s *ManagerSuite) TestRestoreConsumesSnapshot() {
	s.spawnGated("entity-1")
	_, err := s.manager.Capture("entity-1")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Restore("entity-1"))

	stored, err := s.registry.Get("entity-1")
	s.Require().NoError(err)
	s.Nil(stored.Snapshot)
}

func (s *ManagerSuite) TestDoubleRestoreIsNoop() {
	s.spawnGated("entity-1")
	_, err := s.manager.Capture("entity-1")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Restore("entity-1"))

	// Entity moves after the first restore; second restore must not clobber
	moved := model.TransientState{Position: model.Position{X: 42}}
	s.world.SetTransientState("entity-1", moved)

	s.Require().NoError(s.manager.Restore("entity-1"))

	after, ok := s.world.TransientState("entity-1")
	s.Require().True(ok)
	s.Equal(float64(42), after.Position.X)
}

func (s *ManagerSuite) TestRestoreAfterEntityLeftIsNoop() {
	s.spawnGated("entity-1")
	_, err := s.manager.Capture("entity-1")
	s.Require().NoError(err)

	s.world.Remove("entity-1")

	s.NoError(s.manager.Restore("entity-1"))
}

func (s *ManagerSuite) TestRestoreWithoutSession() {
	s.ErrorIs(s.manager.Restore("ghost"), model.ErrNoSession)
}

func (s *ManagerSuite) TestDiscardDropsSnapshot() {
	s.spawnGated("entity-1")
	_, err := s.manager.Capture("entity-1")
	s.Require().NoError(err)

	s.manager.Discard("entity-1")

	stored, err := s.registry.Get("entity-1")
	s.Require().NoError(err)
	s.Nil(stored.Snapshot)
}

func (s *ManagerSuite) TestDiscardWithoutSnapshotIsSafe() {
	s.manager.Discard("ghost")

	s.spawnGated("entity-1")
	s.manager.Discard("entity-1")
}
