package model

import "time"

// Identity uniquely identifies a connected entity across the system.
// It is derived from the entity's durable unique id and is distinct from
// the account username the entity may authenticate as.
type Identity string

// SessionState tracks an entity's progress through the authentication gate
type SessionState int

const (
	// StateGated restricts the entity's actions pending authentication
	StateGated SessionState = iota
	// StateAuthenticated is terminal; a session never returns to Gated
	StateAuthenticated
)

// String returns the lowercase name of the state
func (s SessionState) String() string {
	switch s {
	case StateGated:
		return "gated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Position is a location in the 3D world
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TransientState is the presentation state an entity carries while spawned:
// where it stands, where it faces, and what it holds
type TransientState struct {
	Position  Position `json:"position"`
	Yaw       float32  `json:"yaw"`
	Pitch     float32  `json:"pitch"`
	HeldItems []string `json:"held_items,omitempty"`
}

// Snapshot is a transient copy of presentation state captured at gate entry
// and consumed exactly once at gate exit
type Snapshot struct {
	State      TransientState `json:"state"`
	CapturedAt time.Time      `json:"captured_at"`
}
