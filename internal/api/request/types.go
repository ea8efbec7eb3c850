package request

import "github.com/spawnguard/spawnguard/internal/model"

// ConnectRequest is the request body for connecting an entity
type ConnectRequest struct {
	State model.TransientState `json:"state"`
}

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// LoginRequest is the request body for logging in.
// Username may be empty to reattach to the last bound account.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the request body for changing a password
type ChangePasswordRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
	Confirm string `json:"confirm"`
}

// ChatRequest is the request body for a chat attempt
type ChatRequest struct {
	Text string `json:"text"`
}

// CommandRequest is the request body for a command attempt
type CommandRequest struct {
	Name string `json:"name"`
}
