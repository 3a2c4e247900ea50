package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	Address         string `mapstructure:"address"          yaml:"address"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log        LogServerConfig        `mapstructure:"log"        yaml:"log"`
	Metadata   MetadataServerConfig   `mapstructure:"metadata"   yaml:"metadata"`
	Auth       AuthServerConfig       `mapstructure:"auth"       yaml:"auth"`
	Source     SourceServerConfig     `mapstructure:"source"     yaml:"source"`
	Validation ValidationServerConfig `mapstructure:"validation" yaml:"validation"`
}

// SourceServerConfig points at the bundled dataset. An empty path uses the
// dataset compiled into the binary.
type SourceServerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the agent cannot start with.
func (c *BaseServerConfig) Validate() error {
	switch c.Metadata.Type {
	case "sqlite":
		if c.Metadata.SQLite.Path == "" {
			return fmt.Errorf("metadata.sqlite.path is required for the sqlite metadata store")
		}
	case "postgres":
		if c.Metadata.Postgres.DSN == "" {
			return fmt.Errorf("metadata.postgres.dsn is required for the postgres metadata store")
		}
	default:
		return fmt.Errorf("metadata.type must be \"sqlite\" or \"postgres\", got %q", c.Metadata.Type)
	}

	if c.Validation.BatchSize <= 0 {
		return fmt.Errorf("validation.batch_size must be positive, got %d", c.Validation.BatchSize)
	}

	return nil
}

// Duration parses a configured duration, falling back when it is empty or
// malformed.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
