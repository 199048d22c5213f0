package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/doors/go/internal/game"
	"github.com/rs/zerolog/log"
)

// StateProvider supplies the snapshot a new connection starts from
type StateProvider interface {
	GetState(ctx context.Context, gameID uuid.UUID) (game.State, error)
}

// StateProviderFunc adapts a function to a StateProvider
type StateProviderFunc func(ctx context.Context, gameID uuid.UUID) (game.State, error)

func (f StateProviderFunc) GetState(ctx context.Context, gameID uuid.UUID) (game.State, error) {
	return f(ctx, gameID)
}

// WebSocketHandler handles WebSocket upgrade requests for game connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	stateProvider     StateProvider
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, stateProvider StateProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		stateProvider:     stateProvider,
	}
}

// HandleGameConnection binds a WebSocket to the game named by game_id and
// sends it the current snapshot.
func (h *WebSocketHandler) HandleGameConnection(w http.ResponseWriter, r *http.Request) {
	gameIDStr := r.URL.Query().Get("game_id")
	if gameIDStr == "" {
		http.Error(w, "game_id is required", http.StatusBadRequest)
		return
	}

	gameID, err := uuid.Parse(gameIDStr)
	if err != nil {
		http.Error(w, "invalid game_id format", http.StatusBadRequest)
		return
	}

	state, err := h.stateProvider.GetState(r.Context(), gameID)
	if errors.Is(err, game.ErrGameNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID.String()).Msg("failed to load game state")
		http.Error(w, "failed to load game state", http.StatusInternalServerError)
		return
	}

	initial, err := NewGameEvent(EventTypeStateChanged, gameID, time.Now(), state)
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID.String()).Msg("failed to build initial state event")
		http.Error(w, "failed to load game state", http.StatusInternalServerError)
		return
	}

	// On failure the upgrader has already written the HTTP error response.
	if err := h.connectionManager.UpgradeConnection(w, r, gameID, initial); err != nil {
		log.Error().
			Err(err).
			Str("game_id", gameID.String()).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/game", h.HandleGameConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
