package leaderboard

import (
	"context"
	"fmt"

	"github.com/mcdev12/doors/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

// NotifyChannel is the Postgres channel a new row's id is sent on
const NotifyChannel = "highscore_inserted"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS highscores (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	score      INTEGER NOT NULL CHECK (score >= 0),
	details    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS highscores_rank_idx ON highscores (score DESC, created_at ASC)`,
	`CREATE OR REPLACE FUNCTION notify_highscore_inserted() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + NotifyChannel + `', NEW.id::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS highscore_inserted_notify ON highscores`,
	`CREATE TRIGGER highscore_inserted_notify
	AFTER INSERT ON highscores
	FOR EACH ROW EXECUTE FUNCTION notify_highscore_inserted()`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS highscores (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	score      INTEGER NOT NULL CHECK (score >= 0),
	details    TEXT,
	created_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS highscores_rank_idx ON highscores (score DESC, created_at ASC)`,
}

// Migrate creates the highscores table for driver if it does not exist
func Migrate(ctx context.Context, q Querier, driver dbconfig.Driver) error {
	var statements []string
	switch driver {
	case dbconfig.DriverPostgres:
		statements = postgresSchema
	case dbconfig.DriverSQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("unknown database driver %q", driver)
	}

	for i, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}

	log.Info().Str("driver", string(driver)).Msg("leaderboard schema ready")
	return nil
}
