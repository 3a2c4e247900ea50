package store

import (
	"context"
	"errors"

	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/db/models"
)

// ErrNotFound is returned when a requested version does not exist
var ErrNotFound = errors.New("not found")

// MetadataStore defines the interface for database operations
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Version operations
	CreateVersion(ctx context.Context, version *models.DataVersion, records []approval.DrugApproval) error
	LatestPublished(ctx context.Context) (*models.DataVersion, error)
	GetVersion(ctx context.Context, number int) (*models.DataVersion, error)
	ListVersions(ctx context.Context, limit int) ([]models.DataVersion, error)

	// Row operations
	GetRows(ctx context.Context, versionID string) ([]models.ApprovalRow, error)
}
