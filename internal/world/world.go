package world

import (
	"log/slog"
	"sync"
	"time"

	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/presenter"
)

// Title is a title/subtitle overlay delivered to an entity
type Title struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	FadeIn   time.Duration `json:"fade_in"`
	Stay     time.Duration `json:"stay"`
	FadeOut  time.Duration `json:"fade_out"`
}

type entity struct {
	state    model.TransientState
	frozen   bool
	messages []string
	titles   []Title
}

// World is an in-memory stand-in for the hosting runtime's presentation
// layer. It tracks spawned entities, their transient state, and everything
// delivered to them, and reports forced disconnects back through a handler
// so the gate sees exactly one Disconnect per departure.
type World struct {
	mu       sync.RWMutex
	entities map[model.Identity]*entity
	logger   *slog.Logger

	// onDisconnect runs after the entity is removed; set once at wiring time
	onDisconnect func(id model.Identity, reason string)
}

// New creates an empty world
func New(logger *slog.Logger) *World {
	return &World{
		entities: make(map[model.Identity]*entity),
		logger:   logger.With(slog.String("component", "world")),
	}
}

// Ensure World implements the presenter interface
var _ presenter.Presenter = (*World)(nil)

// SetDisconnectHandler registers the callback invoked when an entity is
// forcibly disconnected. Must be called before any entity spawns.
func (w *World) SetDisconnectHandler(fn func(id model.Identity, reason string)) {
	w.onDisconnect = fn
}

// Spawn adds an entity with the given initial state.
// Returns false if the entity is already present.
func (w *World) Spawn(id model.Identity, state model.TransientState) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entities[id]; ok {
		return false
	}
	w.entities[id] = &entity{state: state}
	w.logger.Info("entity spawned", slog.String("identity", string(id)))
	return true
}

// Remove despawns an entity without a forced-disconnect reason (a voluntary
// departure). Returns false if the entity is not present.
func (w *World) Remove(id model.Identity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	w.logger.Info("entity removed", slog.String("identity", string(id)))
	return true
}

// Present reports whether the entity is currently spawned
func (w *World) Present(id model.Identity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.entities[id]
	return ok
}

// SendMessage delivers a chat message to the entity's inbox
func (w *World) SendMessage(id model.Identity, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	if !ok {
		return
	}
	e.messages = append(e.messages, text)
}

// SendTitle records a title overlay for the entity
func (w *World) SendTitle(id model.Identity, title, subtitle string, fadeIn, stay, fadeOut time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	if !ok {
		return
	}
	e.titles = append(e.titles, Title{
		Title:    title,
		Subtitle: subtitle,
		FadeIn:   fadeIn,
		Stay:     stay,
		FadeOut:  fadeOut,
	})
}

// Disconnect forcibly removes the entity and notifies the disconnect
// handler. A missing entity is a silent no-op.
func (w *World) Disconnect(id model.Identity, reason string) {
	w.mu.Lock()
	_, ok := w.entities[id]
	if ok {
		delete(w.entities, id)
	}
	w.mu.Unlock()

	if !ok {
		return
	}

	w.logger.Info("entity disconnected",
		slog.String("identity", string(id)),
		slog.String("reason", reason))

	if w.onDisconnect != nil {
		w.onDisconnect(id, reason)
	}
}

// TransientState returns the entity's current presentation state
func (w *World) TransientState(id model.Identity) (model.TransientState, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	if !ok {
		return model.TransientState{}, false
	}
	return copyState(e.state), true
}

// SetTransientState re-applies presentation state to the entity
func (w *World) SetTransientState(id model.Identity, state model.TransientState) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	if !ok {
		return false
	}
	e.state = copyState(state)
	return true
}

// SetFrozen toggles the entity's ability to move
func (w *World) SetFrozen(id model.Identity, frozen bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[id]
	if !ok {
		return
	}
	e.frozen = frozen
}

// Frozen reports whether the entity is currently frozen in place
func (w *World) Frozen(id model.Identity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	return ok && e.frozen
}

// Inbox returns copies of everything delivered to the entity so far.
// The second return is false if the entity is not present.
func (w *World) Inbox(id model.Identity) ([]string, []Title, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	if !ok {
		return nil, nil, false
	}
	messages := make([]string, len(e.messages))
	copy(messages, e.messages)
	titles := make([]Title, len(e.titles))
	copy(titles, e.titles)
	return messages, titles, true
}

func copyState(s model.TransientState) model.TransientState {
	cp := s
	if s.HeldItems != nil {
		cp.HeldItems = make([]string, len(s.HeldItems))
		copy(cp.HeldItems, s.HeldItems)
	}
	return cp
}
