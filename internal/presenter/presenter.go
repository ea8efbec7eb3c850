package presenter

import (
	"time"

	"github.com/spawnguard/spawnguard/internal/model"
)

// Presenter is the boundary to the hosting runtime's presentation layer.
// All methods tolerate an entity that is no longer present: message and
// title delivery silently drop, and the state accessors report absence via
// their bool return. Gate logic therefore holds only stable identities,
// never live entity references, across asynchronous delays.
type Presenter interface {
	// SendMessage delivers a chat message to the entity
	SendMessage(id model.Identity, text string)

	// SendTitle shows a title/subtitle overlay with the given timing
	SendTitle(id model.Identity, title, subtitle string, fadeIn, stay, fadeOut time.Duration)

	// Disconnect forcibly removes the entity from the world with a reason
	Disconnect(id model.Identity, reason string)

	// TransientState returns the entity's current presentation state,
	// or false if the entity is not present
	TransientState(id model.Identity) (model.TransientState, bool)

	// SetTransientState re-applies presentation state, returning false if
	// the entity is not present
	SetTransientState(id model.Identity, state model.TransientState) bool

	// SetFrozen toggles the entity's ability to move freely
	SetFrozen(id model.Identity, frozen bool)
}
