package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/spawnguard/spawnguard/internal/dependencies/mocks"
	"github.com/spawnguard/spawnguard/internal/model"
)

type RegistrySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.registry = NewRegistry(s.clock)
}

func (s *RegistrySuite) snapshot() *model.Snapshot {
	return &model.Snapshot{
		State: model.TransientState{
			Position: model.Position{X: 1, Y: 2, Z: 3},
		},
		CapturedAt: s.clock.Now(),
	}
}

func (s *RegistrySuite) TestCreateStartsGated() {
	session, err := s.registry.Create("entity-1")
	s.Require().NoError(err)

	s.Equal(model.Identity("entity-1"), session.Identity)
	s.Equal(model.StateGated, session.State)
	s.Equal(s.clock.Now(), session.JoinTime)
	s.Nil(session.Snapshot)
}

func (s *RegistrySuite) TestCreateDuplicate() {
	_, err := s.registry.Create("entity-1")
	s.Require().NoError(err)

	_, err = s.registry.Create("entity-1")
	s.ErrorIs(err, model.ErrDuplicateSession)
}

func (s *RegistrySuite) TestCreateAfterRemoveSucceeds() {
	_, err := s.registry.Create("entity-1")
	s.Require().NoError(err)

	s.registry.Remove("entity-1")

	_, err = s.registry.Create("entity-1")
	s.NoError(err)
}

func (s *RegistrySuite) TestGetMissing() {
	_, err := s.registry.Get("entity-1")
	s.ErrorIs(err, model.ErrNoSession)
}

func (s *RegistrySuite) TestGetReturnsCopy() {
	_, err := s.registry.Create("entity-1")
	s.Require().NoError(err)

	session, err := s.registry.Get("entity-1")
	s.Require().NoError(err)
	session.State = model.StateAuthenticated

	again, err := s.registry.Get("entity-1")
	s.Require().NoError(err)
	s.Equal(model.StateGated, again.State)
}

func (s *RegistrySuite) TestRemoveMissingIsNoop() {
	s.registry.Remove("entity-1")
	s.Equal(0, s.registry.Count())
}

func (s *RegistrySuite) TestAuthenticate() {
	_, err := s.registry.Create("entity-1")
	s.Require().NoError(err)
	s.Require().NoError(s.registry.SetSnapshot("entity-1", s.snapshot()))

	s.Require().NoError(s.registry.Authenticate("entity-1"))

	session, err := s.registry.Get("entity-1")
	s.Require().NoError(err)
	s.Equal(model.StateAuthenticated, session.State)
	s.Nil(session.Snapshot)
}

func (s *RegistrySuite) TestAuthenticateMissing() {
	s.ErrorIs(s.registry.Authenticate("entity-1"), model.ErrNoSession)
}

func (s *RegistrySuite) TestAuthenticateTwice() {
	_, err := s.registry.Create("entity-1")
	s.Require().NoError(err)

	s.Require().NoError(s.registry.Authenticate("entity-1"))
	s.ErrorIs(s.registry.Authenticate("entity-1"), model.ErrAlreadyAuthenticated)
}

func (s *RegistrySuite) TestSetSnapshotMissing() {
	s.ErrorIs(s.registry.SetSnapshot("entity-1", s.snapshot()), model.ErrNoSession)
}

func (s *RegistrySuite) TestTakeSnapshotClearsIt() {
	_, err := s.registry.Create("entity-1")
	s.Require().NoError(err)
	s.Require().NoError(s.registry.SetSnapshot("entity-1", s.snapshot()))

	snap, err := s.registry.TakeSnapshot("entity-1")
	s.Require().NoError(err)
	s.Require().NotNil(snap)
	s.Equal(float64(1), snap.State.Position.X)

	// Second take returns nil without error
	snap, err = s.registry.TakeSnapshot("entity-1")
	s.Require().NoError(err)
	s.Nil(snap)
}

func (s *RegistrySuite) TestTakeSnapshotMissingSession() {
	_, err := s.registry.TakeSnapshot("entity-1")
	s.ErrorIs(err, model.ErrNoSession)
}

func (s *RegistrySuite) TestCount() {
	s.Equal(0, s.registry.Count())

	_, _ = s.registry.Create("entity-1")
	_, _ = s.registry.Create("entity-2")
	s.Equal(2, s.registry.Count())

	s.registry.Remove("entity-1")
	s.Equal(1, s.registry.Count())
}
