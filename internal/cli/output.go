package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SessionResult:
		o.printSession(v)
	case DecisionResult:
		o.printDecision(v)
	case InboxResult:
		o.printInbox(v)
	case EntityResult:
		o.printEntity(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		o.printJSON(data)
	}
}

// SessionResult response type (matches API)
type SessionResult struct {
	Identity         string    `json:"identity"`
	State            string    `json:"state"`
	JoinTime         time.Time `json:"join_time"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// DecisionResult response type
type DecisionResult struct {
	Allowed bool `json:"allowed"`
}

// InboxResult response type
type InboxResult struct {
	Messages []string     `json:"messages"`
	Titles   []TitleEntry `json:"titles"`
}

// TitleEntry response type
type TitleEntry struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// EntityResult response type
type EntityResult struct {
	Identity string `json:"identity"`
	State    struct {
		Position struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"position"`
		Yaw       float32  `json:"yaw"`
		Pitch     float32  `json:"pitch"`
		HeldItems []string `json:"held_items,omitempty"`
	} `json:"transient_state"`
	Frozen bool `json:"frozen"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printSession(s SessionResult) {
	fmt.Printf("Entity: %s\n", s.Identity)
	fmt.Printf("State: %s\n", s.State)
	fmt.Printf("Joined: %s\n", s.JoinTime.Format(time.RFC3339))
	if s.State == "gated" {
		fmt.Printf("Time remaining: %ds\n", s.RemainingSeconds)
	}
}

func (o *Output) printDecision(d DecisionResult) {
	if d.Allowed {
		fmt.Println("allowed")
	} else {
		fmt.Println("denied")
	}
}

func (o *Output) printInbox(i InboxResult) {
	fmt.Printf("Messages (%d):\n", len(i.Messages))
	for _, m := range i.Messages {
		fmt.Printf("  - %s\n", m)
	}
	if len(i.Titles) > 0 {
		fmt.Printf("Titles (%d):\n", len(i.Titles))
		for _, t := range i.Titles {
			if t.Subtitle != "" {
				fmt.Printf("  - %s / %s\n", t.Title, t.Subtitle)
			} else {
				fmt.Printf("  - %s\n", t.Title)
			}
		}
	}
}

func (o *Output) printEntity(e EntityResult) {
	fmt.Printf("Entity: %s\n", e.Identity)
	fmt.Printf("Position: %.1f, %.1f, %.1f\n", e.State.Position.X, e.State.Position.Y, e.State.Position.Z)
	fmt.Printf("Facing: yaw %.1f, pitch %.1f\n", e.State.Yaw, e.State.Pitch)
	if len(e.State.HeldItems) > 0 {
		fmt.Printf("Held: %s\n", strings.Join(e.State.HeldItems, ", "))
	}
	frozenStr := "no"
	if e.Frozen {
		frozenStr = "yes"
	}
	fmt.Printf("Frozen: %s\n", frozenStr)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
