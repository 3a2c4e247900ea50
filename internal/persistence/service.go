package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwantia/fdatracker/internal/auth"
	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/db/models"
	"github.com/mwantia/fdatracker/pkg/db/store"
	"github.com/mwantia/fdatracker/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fdatracker_persistence_saves_total",
		Help: "Number of dataset save attempts by result.",
	}, []string{"result"})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fdatracker_persistence_loads_total",
		Help: "Number of dataset loads by result.",
	}, []string{"result"})
)

// ErrNoData is returned by Save when no dataset was supplied at all.
var ErrNoData = errors.New("save requires a dataset")

// VersionInfo describes one stored version without its rows.
type VersionInfo struct {
	Version     int       `json:"version"`
	Fingerprint string    `json:"fingerprint"`
	CreatedBy   string    `json:"createdBy"`
	Notes       string    `json:"notes,omitempty"`
	IsPublished bool      `json:"isPublished"`
	RecordCount int       `json:"recordCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Service is the versioned persistence boundary. Every save appends a new
// immutable version; loads only ever see the newest published one.
// Fields are injected by the agent's service container.
type Service struct {
	Store store.MetadataStore `fabric:"inject"`
	Auth  *auth.Authenticator `fabric:"inject"`
	Log   log.LoggerService   `fabric:"logger:persistence"`
}

func NewService(s store.MetadataStore, authenticator *auth.Authenticator, logger log.LoggerService) *Service {
	return &Service{
		Store: s,
		Auth:  authenticator,
		Log:   logger,
	}
}

// Load returns the latest published dataset, or nil when nothing has been
// published yet.
func (s *Service) Load(ctx context.Context) (*approval.Snapshot, error) {
	version, err := s.Store.LatestPublished(ctx)
	if errors.Is(err, store.ErrNotFound) {
		loadsTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}
	if err != nil {
		loadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read latest published version: %w", err)
	}

	rows, err := s.Store.GetRows(ctx, version.ID)
	if err != nil {
		loadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read rows of version %d: %w", version.VersionNumber, err)
	}

	records := make([]approval.DrugApproval, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Payload)
	}

	loadsTotal.WithLabelValues("ok").Inc()
	return &approval.Snapshot{
		Records:   approval.Deduplicate(records),
		Version:   version.VersionNumber,
		UpdatedAt: version.CreatedAt,
	}, nil
}

// Save appends records as a new published version and returns its number.
// The caller in ctx must be authenticated and hold the admin role.
func (s *Service) Save(ctx context.Context, records []approval.DrugApproval, notes string) (int, error) {
	principal, err := auth.Require(ctx, s.Auth.AdminRole())
	if err != nil {
		savesTotal.WithLabelValues("denied").Inc()
		return 0, err
	}
	if records == nil {
		savesTotal.WithLabelValues("invalid").Inc()
		return 0, ErrNoData
	}

	deduped := approval.Deduplicate(records)
	version := &models.DataVersion{
		Fingerprint: approval.Fingerprint(deduped),
		CreatedBy:   principal.Subject,
		Notes:       notes,
		IsPublished: true,
	}

	if err := s.Store.CreateVersion(ctx, version, deduped); err != nil {
		savesTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("failed to create version: %w", err)
	}

	savesTotal.WithLabelValues("ok").Inc()
	s.Log.Info("Saved version %d with %d records by '%s' (dropped %d duplicates)",
		version.VersionNumber, len(deduped), principal.Subject, len(records)-len(deduped))

	return version.VersionNumber, nil
}

// Versions lists the newest versions first.
func (s *Service) Versions(ctx context.Context, limit int) ([]VersionInfo, error) {
	versions, err := s.Store.ListVersions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	infos := make([]VersionInfo, 0, len(versions))
	for _, v := range versions {
		infos = append(infos, VersionInfo{
			Version:     v.VersionNumber,
			Fingerprint: v.Fingerprint,
			CreatedBy:   v.CreatedBy,
			Notes:       v.Notes,
			IsPublished: v.IsPublished,
			RecordCount: v.RecordCount,
			CreatedAt:   v.CreatedAt,
		})
	}
	return infos, nil
}

// Health reports whether the underlying store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.Store.Health(ctx)
}
