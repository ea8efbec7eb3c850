package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/spawnguard/spawnguard/internal/api/handler"
	apimiddleware "github.com/spawnguard/spawnguard/internal/api/middleware"
	"github.com/spawnguard/spawnguard/internal/events"
	"github.com/spawnguard/spawnguard/internal/middleware"
	"github.com/spawnguard/spawnguard/internal/services/gate"
	"github.com/spawnguard/spawnguard/internal/world"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger *slog.Logger
	Gate   *gate.Gate
	World  *world.World
	Hub    *events.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	entityHandler := handler.NewEntityHandler(cfg.Gate, cfg.World)
	eventsHandler := handler.NewEventsHandler(cfg.Hub)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(apimiddleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Entity lifecycle
	entities := api.PathPrefix("/entities/{id}").Subrouter()
	entities.HandleFunc("/connect", entityHandler.Connect).Methods(http.MethodPost)
	entities.HandleFunc("/disconnect", entityHandler.Disconnect).Methods(http.MethodPost)

	// Credential operations
	entities.HandleFunc("/register", entityHandler.Register).Methods(http.MethodPost)
	entities.HandleFunc("/login", entityHandler.Login).Methods(http.MethodPost)
	entities.HandleFunc("/logout", entityHandler.Logout).Methods(http.MethodPost)
	entities.HandleFunc("/password", entityHandler.ChangePassword).Methods(http.MethodPost)

	// Gate decisions
	entities.HandleFunc("/chat", entityHandler.Chat).Methods(http.MethodPost)
	entities.HandleFunc("/command", entityHandler.Command).Methods(http.MethodPost)

	// Inspection
	entities.HandleFunc("/session", entityHandler.Session).Methods(http.MethodGet)
	entities.HandleFunc("/inbox", entityHandler.Inbox).Methods(http.MethodGet)
	entities.HandleFunc("", entityHandler.Entity).Methods(http.MethodGet)

	// Gate event stream
	api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
