package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/doors/go/internal/game"
	"github.com/mcdev12/doors/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Service pushes game snapshots and leaderboard entries to connected clients.
// It implements game.Broadcaster and leaderboard.Notifier.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new gateway service
func NewService(config Config, stateProvider StateProvider) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, stateProvider),
	}
}

// Start runs the broadcast loop until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// PublishState queues a snapshot for the clients of its game
func (s *Service) PublishState(state game.State) {
	event, err := NewGameEvent(EventTypeStateChanged, state.GameID, time.Now(), state)
	if err != nil {
		log.Error().Err(err).Str("game_id", state.GameID.String()).Msg("failed to build state event")
		return
	}
	s.connectionManager.BroadcastToGame(state.GameID, event)
}

// LeaderboardChanged tells every client about a new entry
func (s *Service) LeaderboardChanged(entry models.HighScore) {
	event, err := NewGameEvent(EventTypeLeaderboardUpdated, uuid.Nil, time.Now(), entry)
	if err != nil {
		log.Error().Err(err).Str("entry_id", entry.ID.String()).Msg("failed to build leaderboard event")
		return
	}
	s.connectionManager.BroadcastAll(event)
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
