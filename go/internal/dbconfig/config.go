package dbconfig

import (
	"fmt"
	"net/url"
)

// Driver names the leaderboard store backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Config holds the database connection settings. Fields are filled from the
// config file and then from DB_* environment variables.
type Config struct {
	Driver     Driver `yaml:"driver" env:"DB_DRIVER"`
	Host       string `yaml:"host" env:"DB_HOST"`
	Port       int    `yaml:"port" env:"DB_PORT"`
	User       string `yaml:"user" env:"DB_USER"`
	Password   string `yaml:"password" env:"DB_PASSWORD"`
	Database   string `yaml:"database" env:"DB_NAME"`
	SSLMode    string `yaml:"sslmode" env:"DB_SSLMODE"`
	SQLitePath string `yaml:"sqlite_path" env:"DB_SQLITE_PATH"`
	// Listen enables the Postgres LISTEN/NOTIFY leaderboard listener.
	Listen bool `yaml:"listen" env:"DB_LISTEN"`
}

// Default returns the local development settings.
func Default() Config {
	return Config{
		Driver:     DriverPostgres,
		Host:       "localhost",
		Port:       5432,
		User:       "postgres",
		Password:   "postgres",
		Database:   "doors",
		SSLMode:    "disable",
		SQLitePath: "doors.db",
		Listen:     true,
	}
}

// Validate checks that the driver is known and its settings are usable.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" || c.Database == "" {
			return fmt.Errorf("postgres requires a host and database name")
		}
		if c.Port <= 0 {
			return fmt.Errorf("invalid postgres port %d", c.Port)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite requires a database path")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Driver)
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return SQLiteDSN(c.SQLitePath)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// SQLiteDSN builds a modernc sqlite DSN for path with a busy timeout and the
// sqlite time format.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
}

// DriverName returns the database/sql driver registered for the backend.
func (c Config) DriverName() string {
	if c.Driver == DriverSQLite {
		return "sqlite"
	}
	return "pgx"
}
