package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mcdev12/doors/go/internal/dbconfig"
	"github.com/mcdev12/doors/go/internal/leaderboard"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

func setupDatabase(ctx context.Context, cfg dbconfig.Config) (*sql.DB, error) {
	database, err := sql.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if cfg.Driver == dbconfig.DriverSQLite {
		// SQLite allows a single writer
		database.SetMaxOpenConns(1)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := leaderboard.Migrate(ctx, database, cfg.Driver); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	event := log.Info().Str("driver", string(cfg.Driver))
	if cfg.Driver == dbconfig.DriverSQLite {
		event = event.Str("path", cfg.SQLitePath)
	} else {
		event = event.Str("host", cfg.Host).Int("port", cfg.Port).Str("database", cfg.Database)
	}
	event.Msg("connected to database")
	return database, nil
}
