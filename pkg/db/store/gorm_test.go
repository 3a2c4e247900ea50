package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/db/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	s, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "data", "test.db")})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return s
}

func records(appNos ...string) []approval.DrugApproval {
	out := make([]approval.DrugApproval, 0, len(appNos))
	for _, n := range appNos {
		out = append(out, approval.DrugApproval{
			ApplicationNo:      n,
			ApprovalDate:       "2026-01-15",
			BrandName:          "Brand " + n,
			SupplementCategory: approval.String("SUPPL-1"),
			FdaURL:             approval.String("https://www.fda.gov/drugs/" + n),
		})
	}
	return out
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNewPostgresStore_RequiresDSN(t *testing.T) {
	if _, err := NewPostgresStore(PostgresConfig{}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestGormStore_LatestPublished_Empty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestPublished(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGormStore_CreateVersion_MonotonicNumbers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.DataVersion{CreatedBy: "alice", Fingerprint: "fp1", IsPublished: true}
	if err := s.CreateVersion(ctx, first, records("NDA1", "NDA2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := &models.DataVersion{CreatedBy: "bob", Fingerprint: "fp2", IsPublished: true}
	if err := s.CreateVersion(ctx, second, records("NDA3")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.VersionNumber != 1 || second.VersionNumber != 2 {
		t.Errorf("expected versions 1 and 2, got %d and %d", first.VersionNumber, second.VersionNumber)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("expected distinct generated ids, got %q and %q", first.ID, second.ID)
	}
	if first.RecordCount != 2 || second.RecordCount != 1 {
		t.Errorf("unexpected record counts %d, %d", first.RecordCount, second.RecordCount)
	}

	latest, err := s.LatestPublished(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.VersionNumber != 2 || latest.CreatedBy != "bob" {
		t.Errorf("expected version 2 by bob, got %d by %s", latest.VersionNumber, latest.CreatedBy)
	}

	versions, err := s.ListVersions(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(versions) != 2 || versions[0].VersionNumber != 2 {
		t.Errorf("expected newest-first listing, got %+v", versions)
	}

	limited, _ := s.ListVersions(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestGormStore_LatestPublished_SkipsUnpublished(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateVersion(ctx, &models.DataVersion{CreatedBy: "a", IsPublished: true}, records("NDA1")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateVersion(ctx, &models.DataVersion{CreatedBy: "draft", IsPublished: false}, records("NDA2")); err != nil {
		t.Fatal(err)
	}

	latest, err := s.LatestPublished(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.VersionNumber != 1 {
		t.Errorf("expected published version 1, got %d", latest.VersionNumber)
	}
}

func TestGormStore_GetRows_PreservesOrderAndPayload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	input := records("NDA3", "NDA1", "NDA2")
	input[1].IsCberProduct = approval.Bool(false)

	version := &models.DataVersion{CreatedBy: "alice", IsPublished: true}
	if err := s.CreateVersion(ctx, version, input); err != nil {
		t.Fatal(err)
	}

	rows, err := s.GetRows(ctx, version.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if row.Payload.ApplicationNo != input[i].ApplicationNo {
			t.Errorf("row %d = %s, want %s", i, row.Payload.ApplicationNo, input[i].ApplicationNo)
		}
		if row.IdentityKey != approval.IdentityKey(input[i]) {
			t.Errorf("row %d identity key = %s", i, row.IdentityKey)
		}
	}
	if rows[1].Payload.IsCberProduct == nil || *rows[1].Payload.IsCberProduct {
		t.Error("expected explicit false isCberProduct to survive the round trip")
	}
	if rows[0].Payload.IsCberProduct != nil {
		t.Error("expected absent isCberProduct to stay absent")
	}
	if rows[2].Payload.FdaURL == nil || *rows[2].Payload.FdaURL != "https://www.fda.gov/drugs/NDA2" {
		t.Error("expected fdaUrl to survive the round trip")
	}
}

func TestGormStore_GetVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateVersion(ctx, &models.DataVersion{CreatedBy: "a", Notes: "initial", IsPublished: true}, nil); err != nil {
		t.Fatal(err)
	}

	v, err := s.GetVersion(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Notes != "initial" || v.RecordCount != 0 {
		t.Errorf("unexpected version %+v", v)
	}

	if _, err := s.GetVersion(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGormStore_Health(t *testing.T) {
	s := newTestStore(t)
	if err := s.Health(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
