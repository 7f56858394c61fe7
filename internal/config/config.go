// Package config loads process configuration from the environment (and
// an optional local .env file), grounded on the teacher's
// internal/config.Database/Server/Worker, generalized to the full set of
// engine options the worker process needs.
package config

import (
	"fmt"
	"time"
)

// Database holds the Postgres connection configuration, unchanged from
// the teacher's internal/config.Database.
type Database struct {
	Username     string `envconfig:"DB_USERNAME"`
	Password     string `envconfig:"DB_PASSWORD"`
	Host         string `envconfig:"DB_HOST"`
	Port         string `envconfig:"DB_PORT"`
	Database     string `envconfig:"DB_DATABASE"`
	SSLMode      string `envconfig:"DB_SSL_MODE" default:"require"`
	PoolMaxConns int    `envconfig:"DB_POOL_MAX_CONNS" default:"10"`
}

// ToDbConnectionUri returns a connection URI for pgxpool.
func (d Database) ToDbConnectionUri() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.SSLMode, d.PoolMaxConns,
	)
}

// ToMigrationUri returns a connection URI for golang-migrate's pgx5 driver.
func (d Database) ToMigrationUri() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// Server holds configuration for the producer-facing API process.
type Server struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`
	Database   Database
}

// Engine holds every engine option for the worker process.
type Engine struct {
	Database Database

	// DelayTasks, if false, means newly submitted tasks would execute
	// synchronously rather than through the Store; the bundled HTTP
	// producer always persists (DelayTasks effectively always true for
	// this binding), but the option is still surfaced so a future
	// in-process producer can honor it.
	DelayTasks bool `envconfig:"ENGINE_DELAY_TASKS" default:"true"`

	Concurrency     int `envconfig:"ENGINE_CONCURRENCY" default:"5"`
	SleepIntervalMS int `envconfig:"ENGINE_SLEEP_INTERVAL_MS" default:"1000"`
	ReadAhead       int `envconfig:"ENGINE_READ_AHEAD" default:"10"`

	BackoffBaseSeconds int `envconfig:"ENGINE_BACKOFF_BASE_SECONDS" default:"5"`

	DefaultMaximumAttempts    int `envconfig:"ENGINE_DEFAULT_MAXIMUM_ATTEMPTS" default:"0"`
	DefaultMaximumRuntimeSecs int `envconfig:"ENGINE_DEFAULT_MAXIMUM_RUNTIME_SECONDS" default:"0"`
	DefaultPriority           int `envconfig:"ENGINE_DEFAULT_PRIORITY" default:"0"`

	DefaultDeleteOnSuccess bool `envconfig:"ENGINE_DEFAULT_DELETE_ON_SUCCESS" default:"false"`
	DefaultDeleteOnFailure bool `envconfig:"ENGINE_DEFAULT_DELETE_ON_FAILURE" default:"false"`
	DefaultDeleteOnError   bool `envconfig:"ENGINE_DEFAULT_DELETE_ON_ERROR" default:"false"`
}

// SleepInterval returns the Poller tick period as a time.Duration.
func (e Engine) SleepInterval() time.Duration {
	return time.Duration(e.SleepIntervalMS) * time.Millisecond
}

// BackoffBase returns the base interval fed to backoff.Exponential.
func (e Engine) BackoffBase() time.Duration {
	return time.Duration(e.BackoffBaseSeconds) * time.Second
}
