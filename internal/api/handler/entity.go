package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/spawnguard/spawnguard/internal/api/request"
	"github.com/spawnguard/spawnguard/internal/api/response"
	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/services/gate"
	"github.com/spawnguard/spawnguard/internal/world"
)

// EntityHandler handles entity lifecycle and credential endpoints
type EntityHandler struct {
	gate  *gate.Gate
	world *world.World
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(g *gate.Gate, w *world.World) *EntityHandler {
	return &EntityHandler{
		gate:  g,
		world: w,
	}
}

func identityVar(r *http.Request) model.Identity {
	return model.Identity(mux.Vars(r)["id"])
}

// Connect handles POST /api/v1/entities/{id}/connect
func (h *EntityHandler) Connect(w http.ResponseWriter, r *http.Request) {
	id := identityVar(r)

	var req request.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if !h.world.Spawn(id, req.State) {
		WriteError(w, NewEntityExistsError())
		return
	}

	if err := h.gate.Connect(r.Context(), id); err != nil {
		h.world.Remove(id)
		WriteError(w, err)
		return
	}

	info, err := h.gate.SessionInfo(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionFromInfo(info))
}

// Disconnect handles POST /api/v1/entities/{id}/disconnect
func (h *EntityHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	id := identityVar(r)

	if !h.world.Remove(id) {
		WriteError(w, NewEntityNotFoundError())
		return
	}
	h.gate.Disconnect(id)

	response.NoContent(w)
}

// Register handles POST /api/v1/entities/{id}/register
func (h *EntityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}

	id := identityVar(r)
	if err := h.gate.Register(r.Context(), id, req.Username, req.Password, req.Confirm); err != nil {
		WriteError(w, err)
		return
	}

	info, err := h.gate.SessionInfo(id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromInfo(info))
}

// Login handles POST /api/v1/entities/{id}/login
func (h *EntityHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	id := identityVar(r)
	if err := h.gate.Login(r.Context(), id, req.Username, req.Password); err != nil {
		WriteError(w, err)
		return
	}

	info, err := h.gate.SessionInfo(id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromInfo(info))
}

// ChangePassword handles POST /api/v1/entities/{id}/password
func (h *EntityHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req request.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	id := identityVar(r)
	if err := h.gate.ChangePassword(r.Context(), id, req.Current, req.New, req.Confirm); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Logout handles POST /api/v1/entities/{id}/logout
func (h *EntityHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(r.Context(), identityVar(r)); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Chat handles POST /api/v1/entities/{id}/chat
func (h *EntityHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req request.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	allowed := h.gate.AllowChat(identityVar(r))
	response.JSON(w, http.StatusOK, response.Decision{Allowed: allowed})
}

// Command handles POST /api/v1/entities/{id}/command
func (h *EntityHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req request.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	allowed := h.gate.AllowCommand(identityVar(r), req.Name)
	response.JSON(w, http.StatusOK, response.Decision{Allowed: allowed})
}

// Session handles GET /api/v1/entities/{id}/session
func (h *EntityHandler) Session(w http.ResponseWriter, r *http.Request) {
	info, err := h.gate.SessionInfo(identityVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromInfo(info))
}

// Inbox handles GET /api/v1/entities/{id}/inbox
func (h *EntityHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	messages, titles, ok := h.world.Inbox(identityVar(r))
	if !ok {
		WriteError(w, NewEntityNotFoundError())
		return
	}
	response.JSON(w, http.StatusOK, response.InboxFromWorld(messages, titles))
}

// Entity handles GET /api/v1/entities/{id}
func (h *EntityHandler) Entity(w http.ResponseWriter, r *http.Request) {
	id := identityVar(r)

	state, ok := h.world.TransientState(id)
	if !ok {
		WriteError(w, NewEntityNotFoundError())
		return
	}

	response.JSON(w, http.StatusOK, response.Entity{
		Identity: string(id),
		State:    state,
		Frozen:   h.world.Frozen(id),
	})
}
