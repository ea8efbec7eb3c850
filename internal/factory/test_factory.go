package factory

import (
	"log/slog"
	"time"

	"github.com/spawnguard/spawnguard/internal/dependencies/mocks"
	"github.com/spawnguard/spawnguard/internal/services/credential"
	"github.com/spawnguard/spawnguard/internal/services/gate"
	"github.com/spawnguard/spawnguard/internal/storage/memory"
	"github.com/spawnguard/spawnguard/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockScheduler *mocks.MockScheduler
	MemoryStore   *memory.Storage
}

// TestAppConfig tweaks the wiring of a TestApp
type TestAppConfig struct {
	GateConfig gate.Config
	Logger     *slog.Logger
}

// NewTestApp creates an App wired against in-memory storage and mocked
// clock/scheduler, with the event hub running
func NewTestApp(cfg TestAppConfig) *TestApp {
	logger := cfg.Logger
	if logger == nil {
		logger = testutil.NopLogger()
	}

	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mockScheduler := mocks.NewMockScheduler()

	app := newWithDependencies(store, mockClock, mockScheduler, credential.DefaultConfig(), cfg.GateConfig, logger)
	go app.Hub.Run()

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockScheduler: mockScheduler,
		MemoryStore:   store,
	}
}
