package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/doors/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ListenerConfig configures the Postgres LISTEN/NOTIFY listener
type ListenerConfig struct {
	DatabaseURL   string // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel string // Channel name to LISTEN on
	PingInterval  time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel: NotifyChannel,
		PingInterval:  90 * time.Second,
	}
}

// HighScoreGetter loads a row named by a notification
type HighScoreGetter interface {
	GetHighScore(ctx context.Context, id uuid.UUID) (*models.HighScore, error)
}

// Listener forwards rows inserted by any server instance to the notifier
type Listener struct {
	listener *pq.Listener
	repo     HighScoreGetter
	notifier Notifier
	cfg      ListenerConfig
}

func NewListener(repo HighScoreGetter, notifier Notifier, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		listener: l,
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
	}, nil
}

// Start blocks until ctx is cancelled
func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Msg("listener started")

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// nil notification means the connection was re-established
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

// handleNotification loads the row whose id is in extra and hands it to the
// notifier.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid high score ID in notification: %w", err)
	}

	entry, err := l.repo.GetHighScore(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch high score: %w", err)
	}

	l.notifier.LeaderboardChanged(*entry)
	log.Debug().Str("entry_id", id.String()).Msg("forwarded high score notification")
	return nil
}
