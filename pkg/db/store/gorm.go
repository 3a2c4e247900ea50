package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/db/migrations"
	"github.com/mwantia/fdatracker/pkg/db/models"
	"gorm.io/gorm"
)

const rowBatchSize = 500

// GormStore implements MetadataStore on top of any gorm dialect
type GormStore struct {
	db           *gorm.DB
	maxOpenConns int
	closeOnce    sync.Once
	closeErr     error
}

// DB returns the underlying GORM database instance
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Connect initializes the database connection
func (s *GormStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if s.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(s.maxOpenConns)
		sqlDB.SetMaxIdleConns(s.maxOpenConns)
	}

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection. Repeated calls return the result
// of the first one.
func (s *GormStore) Close() error {
	s.closeOnce.Do(func() {
		sqlDB, err := s.db.DB()
		if err != nil {
			s.closeErr = fmt.Errorf("failed to get database instance: %w", err)
			return
		}
		s.closeErr = sqlDB.Close()
	})
	return s.closeErr
}

// Init connects the store when the service container first resolves it,
// which also enrolls Cleanup for container shutdown.
func (s *GormStore) Init(ctx context.Context) error {
	return s.Connect(ctx)
}

// Cleanup closes the store when the agent shuts down
func (s *GormStore) Cleanup(ctx context.Context) error {
	return s.Close()
}

// Migrate runs database migrations
func (s *GormStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Version operations

// CreateVersion appends a new version and all of its rows in one transaction.
// The version number is assigned here as the current maximum plus one.
func (s *GormStore) CreateVersion(ctx context.Context, version *models.DataVersion, records []approval.DrugApproval) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int
		if err := tx.Model(&models.DataVersion{}).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&current).Error; err != nil {
			return fmt.Errorf("failed to read latest version number: %w", err)
		}

		if version.ID == "" {
			version.ID = uuid.NewString()
		}
		version.VersionNumber = current + 1
		version.RecordCount = len(records)
		version.Rows = nil

		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("failed to create version %d: %w", version.VersionNumber, err)
		}

		if len(records) == 0 {
			return nil
		}

		rows := make([]models.ApprovalRow, 0, len(records))
		for i, r := range records {
			rows = append(rows, models.ApprovalRow{
				VersionID:   version.ID,
				Position:    i,
				IdentityKey: approval.IdentityKey(r),
				Payload:     r,
			})
		}

		if err := tx.CreateInBatches(rows, rowBatchSize).Error; err != nil {
			return fmt.Errorf("failed to create rows for version %d: %w", version.VersionNumber, err)
		}
		return nil
	})
}

func (s *GormStore) LatestPublished(ctx context.Context) (*models.DataVersion, error) {
	var version models.DataVersion
	err := s.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("version_number DESC").
		First(&version).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &version, nil
}

func (s *GormStore) GetVersion(ctx context.Context, number int) (*models.DataVersion, error) {
	var version models.DataVersion
	err := s.db.WithContext(ctx).Where("version_number = ?", number).First(&version).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &version, nil
}

func (s *GormStore) ListVersions(ctx context.Context, limit int) ([]models.DataVersion, error) {
	var versions []models.DataVersion
	query := s.db.WithContext(ctx).Order("version_number DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&versions).Error
	return versions, err
}

// Row operations

func (s *GormStore) GetRows(ctx context.Context, versionID string) ([]models.ApprovalRow, error) {
	var rows []models.ApprovalRow
	err := s.db.WithContext(ctx).
		Where("version_id = ?", versionID).
		Order("position ASC").
		Find(&rows).Error
	return rows, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
