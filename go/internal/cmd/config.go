package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mcdev12/doors/go/internal/bus"
	"github.com/mcdev12/doors/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               string          `yaml:"port" env:"PORT"`
	CORSAllowedOrigins []string        `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	Database           dbconfig.Config `yaml:"database"`
	NATS               NATSConfig      `yaml:"nats"`
	LeaderboardLimit   int             `yaml:"leaderboard_limit" env:"LEADERBOARD_LIMIT"`
	GameIdleTimeout    time.Duration   `yaml:"game_idle_timeout" env:"GAME_IDLE_TIMEOUT"`
	LogLevel           string          `yaml:"log_level" env:"LOG_LEVEL"`
	LogPretty          bool            `yaml:"log_pretty" env:"LOG_PRETTY"`
}

// NATSConfig configures the event bus. An empty URL logs events instead.
type NATSConfig struct {
	URL           string `yaml:"url" env:"NATS_URL"`
	Stream        string `yaml:"stream" env:"NATS_STREAM"`
	SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX"`
}

func defaultConfig() Config {
	js := bus.DefaultJetStreamConfig()
	return Config{
		Port:               "8080",
		CORSAllowedOrigins: []string{"*"},
		Database:           dbconfig.Default(),
		NATS: NATSConfig{
			Stream:        js.StreamName,
			SubjectPrefix: js.SubjectPrefix,
		},
		LeaderboardLimit: 10,
		GameIdleTimeout:  30 * time.Minute,
		LogLevel:         "info",
	}
}

// loadConfig layers the yaml file at path and then the environment over the
// defaults. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("no config file, using defaults and environment")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.LeaderboardLimit <= 0 {
		return fmt.Errorf("invalid leaderboard limit %d", c.LeaderboardLimit)
	}
	if c.GameIdleTimeout <= 0 {
		return fmt.Errorf("invalid game idle timeout %s", c.GameIdleTimeout)
	}
	if c.NATS.URL != "" && (c.NATS.Stream == "" || c.NATS.SubjectPrefix == "") {
		return errors.New("nats stream and subject prefix are required")
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	return nil
}

func setupLogging(c *Config) error {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	if c.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
