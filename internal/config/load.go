package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "GROUPWORK"

// keys lists every setting so viper resolves it from the environment even
// when no config file mentions it.
var keys = []string{
	"server.port",
	"server.log_level",
	"database.driver",
	"database.url",
	"database.max_open_conns",
	"database.max_idle_conns",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"scheduler.timezone",
	"scheduler.interval_minutes",
	"scheduler.worker_count",
	"scheduler.project_approach_days",
	"scheduler.cron_secret",
	"tracing.enabled",
	"tracing.endpoint",
	"tracing.service_name",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.interval_minutes", 0)
	v.SetDefault("scheduler.worker_count", 2)
	v.SetDefault("scheduler.project_approach_days", 3)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "groupwork-api")
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory and environment variables, in increasing precedence.
// It returns an error when the file is malformed or validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
