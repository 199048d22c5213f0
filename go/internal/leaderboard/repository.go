package leaderboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/doors/go/internal/dbconfig"
	"github.com/mcdev12/doors/go/internal/models"
	"github.com/sqlc-dev/pqtype"
)

// Querier defines what the repository needs from the database layer.
// *sql.DB and *sql.Tx satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertHighScoreParams holds the columns of a new leaderboard row
type InsertHighScoreParams struct {
	Name    string
	Score   int
	Details models.HighScoreDetails
}

// Queries are written for Postgres. SQLite gets them rebound to ? placeholders
// and stores created_at as unix milliseconds.
const (
	insertHighScore = `INSERT INTO highscores (id, name, score, details, created_at)
VALUES ($1, $2, $3, $4, $5)`

	selectHighScoreColumns = `SELECT id, name, score, CAST(details AS TEXT), created_at FROM highscores`

	listTopHighScores = selectHighScoreColumns + `
ORDER BY score DESC, created_at ASC, id ASC
LIMIT $1`

	getHighScore = selectHighScoreColumns + `
WHERE id = $1`
)

// Repository implements high score data access operations
type Repository struct {
	queries Querier
	driver  dbconfig.Driver
	clock   clockwork.Clock
}

// NewRepository creates a new leaderboard repository
func NewRepository(querier Querier, driver dbconfig.Driver, clock clockwork.Clock) *Repository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Repository{
		queries: querier,
		driver:  driver,
		clock:   clock,
	}
}

// InsertHighScore stores a new row and returns it
func (r *Repository) InsertHighScore(ctx context.Context, params InsertHighScoreParams) (*models.HighScore, error) {
	details, err := json.Marshal(params.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal details: %w", err)
	}

	entry := models.HighScore{
		ID:        uuid.New(),
		Name:      params.Name,
		Score:     params.Score,
		Details:   params.Details,
		CreatedAt: r.clock.Now().UTC().Truncate(time.Millisecond),
	}

	_, err = r.queries.ExecContext(ctx, r.rebind(insertHighScore),
		entry.ID.String(),
		entry.Name,
		entry.Score,
		pqtype.NullRawMessage{RawMessage: details, Valid: true},
		r.timeArg(entry.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert high score: %w", err)
	}

	return &entry, nil
}

// ListTopHighScores returns up to limit rows in leaderboard order
func (r *Repository) ListTopHighScores(ctx context.Context, limit int) ([]models.HighScore, error) {
	rows, err := r.queries.QueryContext(ctx, r.rebind(listTopHighScores), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list high scores: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HighScore, 0, limit)
	for rows.Next() {
		entry, err := r.scanHighScore(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate high scores: %w", err)
	}
	return entries, nil
}

// GetHighScore retrieves a row by ID
func (r *Repository) GetHighScore(ctx context.Context, id uuid.UUID) (*models.HighScore, error) {
	entry, err := r.scanHighScore(r.queries.QueryRowContext(ctx, r.rebind(getHighScore), id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("high score %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanHighScore(row scanner) (*models.HighScore, error) {
	var (
		entry     models.HighScore
		details   sql.NullString
		createdAt any
		millis    int64
	)
	if r.driver == dbconfig.DriverSQLite {
		createdAt = &millis
	} else {
		createdAt = &entry.CreatedAt
	}

	if err := row.Scan(&entry.ID, &entry.Name, &entry.Score, &details, createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan high score: %w", err)
	}
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal details for %s: %w", entry.ID, err)
		}
	}
	if r.driver == dbconfig.DriverSQLite {
		entry.CreatedAt = time.UnixMilli(millis)
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func (r *Repository) timeArg(t time.Time) any {
	if r.driver == dbconfig.DriverSQLite {
		return t.UnixMilli()
	}
	return t
}

// rebind rewrites $n placeholders to ? for SQLite. Arguments must be passed
// in placeholder order.
func (r *Repository) rebind(query string) string {
	if r.driver != dbconfig.DriverSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && isDigit(query[i+1]) {
			b.WriteByte('?')
			for i+1 < len(query) && isDigit(query[i+1]) {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
