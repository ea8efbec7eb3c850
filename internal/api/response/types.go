package response

import (
	"time"

	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/services/gate"
	"github.com/spawnguard/spawnguard/internal/world"
)

// Session describes an entity's gate state in API responses
type Session struct {
	Identity         string    `json:"identity"`
	State            string    `json:"state"`
	JoinTime         time.Time `json:"join_time"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// SessionFromInfo converts a gate.Info to a response Session
func SessionFromInfo(info *gate.Info) Session {
	return Session{
		Identity:         string(info.Identity),
		State:            info.State.String(),
		JoinTime:         info.JoinTime,
		RemainingSeconds: int(info.Remaining.Seconds()),
	}
}

// Decision is the allow/deny answer to a chat or command attempt
type Decision struct {
	Allowed bool `json:"allowed"`
}

// Title mirrors a delivered title overlay
type Title struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Inbox lists everything delivered to an entity
type Inbox struct {
	Messages []string `json:"messages"`
	Titles   []Title  `json:"titles"`
}

// InboxFromWorld builds an Inbox from world delivery records
func InboxFromWorld(messages []string, titles []world.Title) Inbox {
	out := Inbox{
		Messages: messages,
		Titles:   make([]Title, 0, len(titles)),
	}
	if out.Messages == nil {
		out.Messages = []string{}
	}
	for _, t := range titles {
		out.Titles = append(out.Titles, Title{Title: t.Title, Subtitle: t.Subtitle})
	}
	return out
}

// Entity describes a spawned entity's live state
type Entity struct {
	Identity string               `json:"identity"`
	State    model.TransientState `json:"transient_state"`
	Frozen   bool                 `json:"frozen"`
}
