package model

import "time"

// EventType identifies the type of gate event
type EventType string

const (
	EventEntityGated     EventType = "entity_gated"
	EventAuthSucceeded   EventType = "auth_succeeded"
	EventAuthFailed      EventType = "auth_failed"
	EventReminderSent    EventType = "reminder_sent"
	EventEntityKicked    EventType = "entity_kicked"
	EventEntityLeft      EventType = "entity_left"
	EventLoggedOut       EventType = "logged_out"
	EventPasswordChanged EventType = "password_changed"
)

// GateEvent describes one observable transition of the authentication gate
type GateEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Identity  Identity  `json:"identity"`
	// Username is set for credential-related events
	Username string `json:"username,omitempty"`
	// Reason carries the failure or disconnect reason, if any
	Reason string `json:"reason,omitempty"`
	// RemainingSeconds is set on reminder events
	RemainingSeconds int `json:"remaining_seconds,omitempty"`
}
