package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresConfig holds Postgres-specific configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// NewPostgresStore creates a new Postgres-backed metadata store
func NewPostgresStore(cfg PostgresConfig) (*GormStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	return &GormStore{
		db:           db,
		maxOpenConns: cfg.MaxOpenConns,
	}, nil
}
