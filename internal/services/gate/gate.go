package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/spawnguard/spawnguard/internal/dependencies/clock"
	"github.com/spawnguard/spawnguard/internal/events"
	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/presenter"
	"github.com/spawnguard/spawnguard/internal/services/credential"
	"github.com/spawnguard/spawnguard/internal/services/session"
	"github.com/spawnguard/spawnguard/internal/services/snapshot"
	"github.com/spawnguard/spawnguard/internal/services/timer"
)

// KickReason is the disconnect reason for entities that run out the grace
// period without authenticating
const KickReason = "authentication timed out"

// LogoutReason is the disconnect reason after a voluntary logout
const LogoutReason = "logged out"

// Config holds configuration for the gate
type Config struct {
	// GracePeriod is how long an entity may stay Gated before being kicked
	GracePeriod time.Duration
	// ReminderEvery is the cadence of the reminder timer tick
	ReminderEvery time.Duration
	// ReminderMarks lists the remaining-seconds values at which a reminder
	// is actually emitted
	ReminderMarks []int
	// AllowedCommands may be issued while still Gated
	AllowedCommands []string
}

// DefaultConfig returns default gate configuration
func DefaultConfig() Config {
	return Config{
		GracePeriod:     180 * time.Second,
		ReminderEvery:   time.Second,
		ReminderMarks:   []int{150, 120, 90, 60, 30},
		AllowedCommands: []string{"register", "login"},
	}
}

// Info is a read-only view of one entity's gate state
type Info struct {
	Identity  model.Identity     `json:"identity"`
	State     model.SessionState `json:"state"`
	JoinTime  time.Time          `json:"join_time"`
	Remaining time.Duration      `json:"remaining"`
}

// Gate is the per-entity authentication state machine. It orchestrates the
// session registry, credential service, timer coordinator and snapshot
// manager on connect, credential submission, timeout and disconnect.
//
// One mutex serializes every transition; the presenter's Disconnect is only
// ever invoked after the mutex is released, because the world reports
// forced disconnects back into Disconnect on the same goroutine.
type Gate struct {
	cfg         Config
	registry    *session.Registry
	credentials *credential.Service
	timers      *timer.Coordinator
	snapshots   *snapshot.Manager
	presenter   presenter.Presenter
	hub         *events.Hub
	clock       clock.Clock
	logger      *slog.Logger

	mu       sync.Mutex
	reminded map[model.Identity]map[int]struct{}
	marks    map[int]struct{}
	allowed  map[string]struct{}
}

// New creates a Gate
func New(
	cfg Config,
	registry *session.Registry,
	credentials *credential.Service,
	timers *timer.Coordinator,
	snapshots *snapshot.Manager,
	p presenter.Presenter,
	hub *events.Hub,
	clk clock.Clock,
	logger *slog.Logger,
) *Gate {
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = DefaultConfig().GracePeriod
	}
	if cfg.ReminderEvery == 0 {
		cfg.ReminderEvery = DefaultConfig().ReminderEvery
	}
	if cfg.ReminderMarks == nil {
		cfg.ReminderMarks = DefaultConfig().ReminderMarks
	}
	if cfg.AllowedCommands == nil {
		cfg.AllowedCommands = DefaultConfig().AllowedCommands
	}

	marks := make(map[int]struct{}, len(cfg.ReminderMarks))
	for _, m := range cfg.ReminderMarks {
		marks[m] = struct{}{}
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedCommands))
	for _, c := range cfg.AllowedCommands {
		allowed[c] = struct{}{}
	}

	return &Gate{
		cfg:         cfg,
		registry:    registry,
		credentials: credentials,
		timers:      timers,
		snapshots:   snapshots,
		presenter:   p,
		hub:         hub,
		clock:       clk,
		logger:      logger.With(slog.String("component", "gate")),
		reminded:    make(map[model.Identity]map[int]struct{}),
		marks:       marks,
		allowed:     allowed,
	}
}

// Connect starts a Gated session for a newly connected entity: snapshot
// captured, movement frozen, kick and reminder timers armed.
func (g *Gate) Connect(ctx context.Context, id model.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.registry.Create(id); err != nil {
		return err
	}

	if _, err := g.snapshots.Capture(id); err != nil {
		g.registry.Remove(id)
		return err
	}

	g.timers.Arm(id, timer.ArmConfig{
		KickAfter:     g.cfg.GracePeriod,
		ReminderEvery: g.cfg.ReminderEvery,
		OnKick:        g.handleKick,
		OnReminder:    g.handleReminder,
	})
	g.reminded[id] = make(map[int]struct{})

	grace := int(g.cfg.GracePeriod.Seconds())
	g.presenter.SendMessage(id, fmt.Sprintf("Please register or log in within %d seconds.", grace))
	g.presenter.SendTitle(id, "Authentication required", "use /register or /login",
		time.Second, 5*time.Second, time.Second)

	g.logger.Info("entity gated", slog.String("identity", string(id)))
	g.publish(model.GateEvent{Type: model.EventEntityGated, Identity: id})

	return nil
}

// Disconnect tears down the session for an entity that left the world.
// Unknown identities are ignored, so the world's disconnect callback can
// race freely with kick and logout cleanup.
func (g *Gate) Disconnect(id model.Identity) {
	g.mu.Lock()

	sess, err := g.registry.Get(id)
	if err != nil {
		g.mu.Unlock()
		return
	}

	g.timers.Cancel(id)
	g.snapshots.Discard(id)
	g.registry.Remove(id)
	delete(g.reminded, id)

	g.logger.Info("entity left",
		slog.String("identity", string(id)),
		slog.String("state", sess.State.String()))
	g.publish(model.GateEvent{Type: model.EventEntityLeft, Identity: id})

	g.mu.Unlock()
}

// Register creates a new account for a Gated entity and completes
// authentication on success
func (g *Gate) Register(ctx context.Context, id model.Identity, username, password, confirm string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireGated(id); err != nil {
		return err
	}

	if password != confirm {
		g.presenter.SendMessage(id, "Passwords do not match.")
		return model.ErrPasswordMismatch
	}

	if _, err := g.credentials.FindByIdentity(ctx, id); err == nil {
		g.presenter.SendMessage(id, "You already have an account. Use /login.")
		return model.ErrAlreadyRegistered
	} else if !errors.Is(err, model.ErrAccountNotFound) {
		return err
	}

	record, err := g.credentials.Create(ctx, username, password, 0)
	if err != nil {
		g.rejectCredential(id, username, err)
		return err
	}

	if err := g.credentials.Bind(ctx, id, record); err != nil {
		return err
	}

	return g.complete(id, username)
}

// Login authenticates a Gated entity against an existing account. An empty
// username reattaches the entity to the account it was last bound to.
func (g *Gate) Login(ctx context.Context, id model.Identity, username, password string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireGated(id); err != nil {
		return err
	}

	if username == "" {
		record, err := g.credentials.FindByIdentity(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrAccountNotFound) {
				g.presenter.SendMessage(id, "No account is linked to you. Provide a username or /register.")
			}
			return err
		}
		username = record.Username
	}

	record, err := g.credentials.Authenticate(ctx, username, password)
	if err != nil {
		g.rejectCredential(id, username, err)
		return err
	}

	if err := g.credentials.Bind(ctx, id, record); err != nil {
		return err
	}

	return g.complete(id, username)
}

// ChangePassword rewrites the password of the account the authenticated
// entity is bound to
func (g *Gate) ChangePassword(ctx context.Context, id model.Identity, old, newPassword, confirm string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sess, err := g.registry.Get(id)
	if err != nil {
		return err
	}
	if sess.State != model.StateAuthenticated {
		return model.ErrNoSession
	}

	record, err := g.credentials.FindByIdentity(ctx, id)
	if err != nil {
		return err
	}

	if newPassword != confirm {
		g.presenter.SendMessage(id, "Passwords do not match.")
		return model.ErrPasswordMismatch
	}

	if _, err := g.credentials.Authenticate(ctx, record.Username, old); err != nil {
		if errors.Is(err, model.ErrWrongPassword) {
			g.presenter.SendMessage(id, "Current password is incorrect.")
		}
		return err
	}

	if err := g.credentials.ChangePassword(ctx, record.Username, newPassword); err != nil {
		g.rejectCredential(id, record.Username, err)
		return err
	}

	// Keep the by-identity copy in sync with the rewritten hash
	updated, err := g.credentials.Authenticate(ctx, record.Username, newPassword)
	if err != nil {
		return err
	}
	if err := g.credentials.Bind(ctx, id, updated); err != nil {
		return err
	}

	g.presenter.SendMessage(id, "Password changed.")
	g.logger.Info("password changed",
		slog.String("identity", string(id)),
		slog.String("username", record.Username))
	g.publish(model.GateEvent{Type: model.EventPasswordChanged, Identity: id, Username: record.Username})

	return nil
}

// Logout deletes the entity's credential binding and force-disconnects it.
// Re-entering the world starts a fresh Gated cycle.
func (g *Gate) Logout(ctx context.Context, id model.Identity) error {
	g.mu.Lock()

	sess, err := g.registry.Get(id)
	if err != nil {
		g.mu.Unlock()
		return err
	}
	if sess.State != model.StateAuthenticated {
		g.mu.Unlock()
		return model.ErrNoSession
	}

	record, err := g.credentials.FindByIdentity(ctx, id)
	if err != nil {
		g.mu.Unlock()
		return err
	}

	if err := g.credentials.Unbind(ctx, id); err != nil {
		g.mu.Unlock()
		return err
	}

	g.logger.Info("logged out",
		slog.String("identity", string(id)),
		slog.String("username", record.Username))
	g.publish(model.GateEvent{Type: model.EventLoggedOut, Identity: id, Username: record.Username})

	g.mu.Unlock()

	// Drives Disconnect through the world's callback
	g.presenter.Disconnect(id, LogoutReason)
	return nil
}

// AllowChat reports whether the entity may chat
func (g *Gate) AllowChat(id model.Identity) bool {
	sess, err := g.registry.Get(id)
	return err == nil && sess.State == model.StateAuthenticated
}

// AllowCommand reports whether the entity may issue the named command.
// Gated entities are restricted to the configured allow-list.
func (g *Gate) AllowCommand(id model.Identity, name string) bool {
	sess, err := g.registry.Get(id)
	if err != nil {
		return false
	}
	if sess.State == model.StateAuthenticated {
		return true
	}
	_, ok := g.allowed[name]
	return ok
}

// SessionInfo returns the entity's gate state and remaining grace time
func (g *Gate) SessionInfo(id model.Identity) (*Info, error) {
	sess, err := g.registry.Get(id)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Identity: id,
		State:    sess.State,
		JoinTime: sess.JoinTime,
	}
	if sess.State == model.StateGated {
		remaining := g.cfg.GracePeriod - g.clock.Now().Sub(sess.JoinTime)
		if remaining < 0 {
			remaining = 0
		}
		info.Remaining = remaining
	}
	return info, nil
}

// requireGated checks that a credential submission is valid for the
// entity's current state
func (g *Gate) requireGated(id model.Identity) error {
	sess, err := g.registry.Get(id)
	if err != nil {
		return err
	}
	if sess.State == model.StateAuthenticated {
		return model.ErrAlreadyAuthenticated
	}
	return nil
}

// complete is the shared tail of a successful Register or Login:
// cancel, restore, mark authenticated, in that order.
func (g *Gate) complete(id model.Identity, username string) error {
	g.timers.Cancel(id)

	if err := g.snapshots.Restore(id); err != nil {
		return err
	}

	if err := g.registry.Authenticate(id); err != nil {
		return err
	}
	delete(g.reminded, id)

	g.presenter.SendMessage(id, fmt.Sprintf("Welcome, %s!", username))

	g.logger.Info("authentication succeeded",
		slog.String("identity", string(id)),
		slog.String("username", username))
	g.publish(model.GateEvent{Type: model.EventAuthSucceeded, Identity: id, Username: username})

	return nil
}

// rejectCredential reports a failed credential operation to the entity and
// the event stream. The session stays Gated and the timers keep running.
func (g *Gate) rejectCredential(id model.Identity, username string, err error) {
	var text string
	switch {
	case errors.Is(err, model.ErrInvalidPassword):
		text = "Password is too short."
	case errors.Is(err, model.ErrInvalidUsername):
		text = "Username must be 3-16 characters."
	case errors.Is(err, model.ErrAlreadyExists):
		text = "That username is taken."
	case errors.Is(err, model.ErrQuotaExceeded):
		text = "You have reached the account limit."
	case errors.Is(err, model.ErrAccountNotFound):
		text = "No such account."
	case errors.Is(err, model.ErrWrongPassword):
		text = "Wrong password."
	case errors.Is(err, model.ErrStorageUnavailable):
		text = "Temporary problem, please try again."
	default:
		text = "Authentication failed."
	}
	g.presenter.SendMessage(id, text)

	g.logger.Warn("authentication failed",
		slog.String("identity", string(id)),
		slog.String("username", username),
		slog.Any("error", err))
	g.publish(model.GateEvent{
		Type:     model.EventAuthFailed,
		Identity: id,
		Username: username,
		Reason:   err.Error(),
	})
}

// handleKick fires when the grace period expires. It re-checks that the
// session still exists and is still Gated before acting.
func (g *Gate) handleKick(id model.Identity) {
	g.mu.Lock()

	sess, err := g.registry.Get(id)
	if err != nil || sess.State != model.StateGated {
		g.mu.Unlock()
		return
	}

	g.timers.Cancel(id)
	g.snapshots.Discard(id)
	g.registry.Remove(id)
	delete(g.reminded, id)

	g.logger.Info("entity kicked", slog.String("identity", string(id)))
	g.publish(model.GateEvent{Type: model.EventEntityKicked, Identity: id, Reason: KickReason})

	g.mu.Unlock()

	// The session is already gone, so the world's disconnect callback
	// re-entering Disconnect resolves as a no-op
	g.presenter.Disconnect(id, KickReason)
}

// handleReminder fires on every reminder tick and emits a reminder only at
// the configured remaining-seconds marks, at most once per mark.
func (g *Gate) handleReminder(id model.Identity, elapsed time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sess, err := g.registry.Get(id)
	if err != nil || sess.State != model.StateGated {
		return
	}

	remaining := int(math.Round((g.cfg.GracePeriod - elapsed).Seconds()))
	if _, ok := g.marks[remaining]; !ok {
		return
	}

	sent := g.reminded[id]
	if sent == nil {
		sent = make(map[int]struct{})
		g.reminded[id] = sent
	}
	if _, done := sent[remaining]; done {
		return
	}
	sent[remaining] = struct{}{}

	g.presenter.SendMessage(id, fmt.Sprintf("%d seconds left to authenticate.", remaining))
	g.presenter.SendTitle(id, "Authentication required",
		fmt.Sprintf("%d seconds remaining", remaining),
		500*time.Millisecond, 2*time.Second, 500*time.Millisecond)

	g.logger.Info("reminder sent",
		slog.String("identity", string(id)),
		slog.Int("remaining_seconds", remaining))
	g.publish(model.GateEvent{
		Type:             model.EventReminderSent,
		Identity:         id,
		RemainingSeconds: remaining,
	})
}

func (g *Gate) publish(event model.GateEvent) {
	event.Timestamp = g.clock.Now()
	g.hub.Publish(event)
}
