package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/doors/go/internal/bus"
	"github.com/mcdev12/doors/go/internal/dbconfig"
	"github.com/mcdev12/doors/go/internal/game"
	"github.com/mcdev12/doors/go/internal/gateway"
	"github.com/mcdev12/doors/go/internal/leaderboard"
	"github.com/mcdev12/doors/go/internal/scheduler"
	"github.com/rs/zerolog/log"
)

type eventPublisher interface {
	game.Publisher
	Close() error
}

type Services struct {
	Scheduler          *scheduler.Scheduler
	Game               *game.App
	GameService        *game.Service
	Leaderboard        *leaderboard.App
	LeaderboardService *leaderboard.Service
	Listener           *leaderboard.Listener
	Gateway            *gateway.Service
	Publisher          eventPublisher
}

func setupServices(ctx context.Context, cfg *Config, database *sql.DB) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()

	publisher, err := setupPublisher(ctx, cfg.NATS)
	if err != nil {
		return nil, err
	}

	// The gateway needs game state for new connections and the game app
	// pushes through the gateway, so the provider is bound after both exist.
	var gameApp *game.App
	gatewayService := gateway.NewService(gateway.DefaultConfig(), gateway.StateProviderFunc(
		func(ctx context.Context, gameID uuid.UUID) (game.State, error) {
			return gameApp.GetState(ctx, gameID)
		},
	))

	// Leaderboard
	highScoreRepo := leaderboard.NewRepository(database, cfg.Database.Driver, clock)
	listener := setupListener(cfg.Database, highScoreRepo, gatewayService)
	leaderboardApp := leaderboard.NewApp(highScoreRepo, gatewayService, leaderboard.Config{
		Limit:          cfg.LeaderboardLimit,
		NotifyOnInsert: listener == nil,
	})
	leaderboardService := leaderboard.NewService(leaderboardApp)

	// Game
	timers := scheduler.New(clock)
	gameApp = game.NewApp(game.Config{
		Clock:            clock,
		IdleTimeout:      cfg.GameIdleTimeout,
		LeaderboardLimit: cfg.LeaderboardLimit,
	}, timers, leaderboardApp, gatewayService, publisher)
	gameService := game.NewService(gameApp)

	return &Services{
		Scheduler:          timers,
		Game:               gameApp,
		GameService:        gameService,
		Leaderboard:        leaderboardApp,
		LeaderboardService: leaderboardService,
		Listener:           listener,
		Gateway:            gatewayService,
		Publisher:          publisher,
	}, nil
}

func setupPublisher(ctx context.Context, cfg NATSConfig) (eventPublisher, error) {
	if cfg.URL == "" {
		log.Info().Msg("NATS_URL not set, game events are only logged")
		return bus.NewLogPublisher(cfg.SubjectPrefix), nil
	}

	jsCfg := bus.DefaultJetStreamConfig()
	jsCfg.URL = cfg.URL
	jsCfg.StreamName = cfg.Stream
	jsCfg.SubjectPrefix = cfg.SubjectPrefix

	publisher, err := bus.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup event publisher: %w", err)
	}
	return publisher, nil
}

// setupListener starts LISTEN/NOTIFY on Postgres. It returns nil when the
// listener is disabled or unavailable, in which case the leaderboard app
// notifies the gateway itself.
func setupListener(cfg dbconfig.Config, repo leaderboard.HighScoreGetter, notifier leaderboard.Notifier) *leaderboard.Listener {
	if cfg.Driver != dbconfig.DriverPostgres || !cfg.Listen {
		return nil
	}

	listenerCfg := leaderboard.DefaultListenerConfig()
	listenerCfg.DatabaseURL = cfg.DSN()

	listener, err := leaderboard.NewListener(repo, notifier, listenerCfg)
	if err != nil {
		log.Warn().Err(err).Msg("leaderboard listener unavailable, notifying on insert")
		return nil
	}
	return listener
}

func (s *Services) Close() {
	s.Scheduler.Stop()
	if err := s.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
}
