package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, read once at startup and passed
// explicitly to the components that need it.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN"`
	GuildID  string `envconfig:"GUILD_ID" validate:"omitempty,numeric"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMaxConn   int32  `envconfig:"DB_MAX_CONN" default:"10" validate:"min=1,max=100"`
	RedisURL    string `envconfig:"REDIS_URL" validate:"omitempty,url"`

	Port      string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`

	LogChannelID string `envconfig:"LOG_CHANNEL_ID" validate:"omitempty,numeric"`

	SessionMaxAge    time.Duration `envconfig:"SESSION_MAX_AGE" default:"30m" validate:"gt=0"`
	SessionSweepSpec string        `envconfig:"SESSION_SWEEP_SPEC" default:"0 */5 * * * *" validate:"required"`
	LockTTL          time.Duration `envconfig:"LOCK_TTL" default:"10s" validate:"gt=0"`

	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"heist" validate:"required,alphanum"`
}

// LoadConfig reads an optional .env file, then the process environment.
// Values already present in the environment win over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// HasDatabase reports whether a Postgres ledger is configured.
func (c *Config) HasDatabase() bool { return c.DatabaseURL != "" }

// HasRedis reports whether player locks should be shared through Redis.
func (c *Config) HasRedis() bool { return c.RedisURL != "" }
