package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mcdev12/doors/go/internal/models"
	"github.com/rs/zerolog/log"
)

const defaultLimit = 10

// HighScoreRepository defines what the app layer needs from the repository
type HighScoreRepository interface {
	InsertHighScore(ctx context.Context, params InsertHighScoreParams) (*models.HighScore, error)
	ListTopHighScores(ctx context.Context, limit int) ([]models.HighScore, error)
	GetHighScore(ctx context.Context, id uuid.UUID) (*models.HighScore, error)
}

// Notifier is told about every new leaderboard entry
type Notifier interface {
	LeaderboardChanged(entry models.HighScore)
}

// Config holds the leaderboard tunables
type Config struct {
	// Limit is the number of entries FetchTop returns when asked for n <= 0.
	Limit int
	// NotifyOnInsert makes Submit notify directly. It is turned off when the
	// database listener delivers inserts instead.
	NotifyOnInsert bool
}

// App handles leaderboard business logic
type App struct {
	repo           HighScoreRepository
	notifier       Notifier
	limit          int
	notifyOnInsert bool
}

// NewApp creates a new leaderboard App
func NewApp(repo HighScoreRepository, notifier Notifier, cfg Config) *App {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.Limit > MaxFetch {
		cfg.Limit = MaxFetch
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &App{
		repo:           repo,
		notifier:       notifier,
		limit:          cfg.Limit,
		notifyOnInsert: cfg.NotifyOnInsert,
	}
}

// Submit records score under name. Validation failures are returned as is;
// store failures come back as *SubmitError.
func (a *App) Submit(ctx context.Context, name string, score int, details models.HighScoreDetails) (*models.HighScore, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	if score < 0 {
		return nil, ErrNegativeScore
	}

	entry, err := a.repo.InsertHighScore(ctx, InsertHighScoreParams{
		Name:    name,
		Score:   score,
		Details: details,
	})
	if err != nil {
		return nil, &SubmitError{Err: err}
	}

	log.Info().
		Str("entry_id", entry.ID.String()).
		Str("name", entry.Name).
		Int("score", entry.Score).
		Msg("high score recorded")

	if a.notifyOnInsert {
		a.notifier.LeaderboardChanged(*entry)
	}
	return entry, nil
}

// FetchTop returns the n best scores, highest first. Ties go to the earlier
// entry. n <= 0 uses the configured limit.
func (a *App) FetchTop(ctx context.Context, n int) ([]models.HighScore, error) {
	if n <= 0 {
		n = a.limit
	}
	if n > MaxFetch {
		n = MaxFetch
	}

	entries, err := a.repo.ListTopHighScores(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top scores: %w", err)
	}
	return entries, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

type nopNotifier struct{}

func (nopNotifier) LeaderboardChanged(models.HighScore) {}
