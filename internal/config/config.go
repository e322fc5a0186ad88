package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects and configures the storage backend.
// The memory driver keeps everything in process and is meant for local runs.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL          string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains token validation settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// SchedulerConfig controls the deadline sweep.
type SchedulerConfig struct {
	// Timezone fixes which calendar day "today" is.
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`

	// IntervalMinutes enables an in-process ticker that runs the sweep.
	// Zero leaves triggering to external callers of the sweep endpoint.
	IntervalMinutes int `mapstructure:"interval_minutes" validate:"gte=0"`

	// WorkerCount bounds how many checks run concurrently in one sweep.
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1,lte=5"`

	// ProjectApproachDays is how many days ahead a project deadline is announced.
	ProjectApproachDays int `mapstructure:"project_approach_days" validate:"gte=1,lte=30"`

	// CronSecret, when set, lets an external cron call the sweep endpoint
	// with "Authorization: Bearer <secret>" instead of a user token.
	CronSecret string `mapstructure:"cron_secret" validate:"omitempty,min=16"`
}

// Interval returns the ticker period, or zero when disabled.
func (c SchedulerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Location resolves Timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TracingConfig enables OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string `mapstructure:"service_name" validate:"required"`
}
