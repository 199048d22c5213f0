package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/doors/go/internal/dbconfig"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LeaderboardLimit != 10 || cfg.GameIdleTimeout != 30*time.Minute {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.NATS.Stream != "DOORS_EVENTS" || cfg.NATS.SubjectPrefix != "doors.events" {
		t.Fatalf("nats = %+v", cfg.NATS)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
port: "9090"
leaderboard_limit: 25
game_idle_timeout: 45m
cors_allowed_origins:
  - https://doors.example
database:
  driver: sqlite
  sqlite_path: /tmp/doors-test.db
nats:
  url: nats://localhost:4222
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.LeaderboardLimit != 25 || cfg.GameIdleTimeout != 45*time.Minute {
		t.Fatalf("config = %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://doors.example" {
		t.Fatalf("origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Database.Driver != dbconfig.DriverSQLite || cfg.Database.SQLitePath != "/tmp/doors-test.db" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.NATS.URL != "nats://localhost:4222" || cfg.NATS.Stream != "DOORS_EVENTS" {
		t.Fatalf("nats = %+v", cfg.NATS)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
port: "9090"
leaderboard_limit: 25
database:
  driver: sqlite
  sqlite_path: from-file.db
`)
	t.Setenv("PORT", "7070")
	t.Setenv("LEADERBOARD_LIMIT", "5")
	t.Setenv("DB_SQLITE_PATH", "from-env.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "7070" || cfg.LeaderboardLimit != 5 {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Database.SQLitePath != "from-env.db" {
		t.Fatalf("sqlite path = %q", cfg.Database.SQLitePath)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad yaml", body: "port: [", want: "failed to parse config"},
		{name: "unknown driver", body: "database:\n  driver: mysql\n", want: "invalid database config"},
		{name: "zero limit", body: "leaderboard_limit: -1\n", want: "invalid leaderboard limit"},
		{name: "nats without stream", body: "nats:\n  url: nats://x\n  stream: \"\"\n", want: "nats stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("loadConfig error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	previous := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })

	if err := setupLogging(&Config{LogLevel: "WARN"}); err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("level = %v, want warn", zerolog.GlobalLevel())
	}
	if err := setupLogging(&Config{LogLevel: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
