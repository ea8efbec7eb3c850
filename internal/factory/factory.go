package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spawnguard/spawnguard/internal/dependencies/clock"
	"github.com/spawnguard/spawnguard/internal/dependencies/scheduler"
	"github.com/spawnguard/spawnguard/internal/events"
	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/services/credential"
	"github.com/spawnguard/spawnguard/internal/services/gate"
	"github.com/spawnguard/spawnguard/internal/services/session"
	"github.com/spawnguard/spawnguard/internal/services/snapshot"
	"github.com/spawnguard/spawnguard/internal/services/timer"
	"github.com/spawnguard/spawnguard/internal/storage"
	filestorage "github.com/spawnguard/spawnguard/internal/storage/file"
	"github.com/spawnguard/spawnguard/internal/storage/memory"
	redisstorage "github.com/spawnguard/spawnguard/internal/storage/redis"
	"github.com/spawnguard/spawnguard/internal/world"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeFile   = "file"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	Storage   storage.Store
	Clock     clock.Clock
	Scheduler scheduler.Scheduler

	World       *world.World
	Hub         *events.Hub
	Registry    *session.Registry
	Credentials *credential.Service
	Timers      *timer.Coordinator
	Snapshots   *snapshot.Manager
	Gate        *gate.Gate

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional, no-op if nil)
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "file" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// FileDir is the data directory (required if StorageType is "file")
	FileDir string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// CredentialConfig configures validation and quota rules
	CredentialConfig credential.Config
	// GateConfig configures the grace period and reminder schedule
	GateConfig gate.Config
}

// New creates a new application with all dependencies wired and the event
// hub running
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	var closers []io.Closer

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeFile:
		if cfg.FileDir == "" {
			return nil, errors.New("FileDir required when StorageType is file")
		}
		fileStore, err := filestorage.New(cfg.FileDir)
		if err != nil {
			return nil, err
		}
		store = fileStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'file' or 'redis'")
	}

	app := newWithDependencies(store, clock.New(), scheduler.New(), cfg.CredentialConfig, cfg.GateConfig, logger)
	app.closers = closers
	go app.Hub.Run()

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for
// testing). The event hub is not started.
func newWithDependencies(
	store storage.Store,
	clk clock.Clock,
	sched scheduler.Scheduler,
	credCfg credential.Config,
	gateCfg gate.Config,
	logger *slog.Logger,
) *App {
	w := world.New(logger)
	hub := events.NewHub(logger)
	registry := session.NewRegistry(clk)
	credentials := credential.New(store, clk, credCfg)
	timers := timer.NewCoordinator(sched, clk, logger)
	snapshots := snapshot.NewManager(w, registry, clk, logger)

	g := gate.New(gateCfg, registry, credentials, timers, snapshots, w, hub, clk, logger)

	// Forced disconnects reported by the world drive the gate's Disconnect
	// transition
	w.SetDisconnectHandler(func(id model.Identity, _ string) {
		g.Disconnect(id)
	})

	return &App{
		Storage:     store,
		Clock:       clk,
		Scheduler:   sched,
		World:       w,
		Hub:         hub,
		Registry:    registry,
		Credentials: credentials,
		Timers:      timers,
		Snapshots:   snapshots,
		Gate:        g,
	}
}

// Close shuts down the event hub and any storage connections
func (a *App) Close() error {
	a.Hub.Close()

	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
