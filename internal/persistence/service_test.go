package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mwantia/fdatracker/internal/auth"
	config "github.com/mwantia/fdatracker/internal/config/server"
	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/db/store"
	"github.com/mwantia/fdatracker/pkg/log"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "persistence.db")})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return NewService(s, auth.NewAuthenticator(config.AuthServerConfig{AdminRole: "admin"}), log.Discard())
}

func adminContext() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{Subject: "alice", Roles: []string{"admin"}})
}

func record(appNo, date string) approval.DrugApproval {
	return approval.DrugApproval{ApplicationNo: appNo, ApprovalDate: date, BrandName: "Brand " + appNo}
}

func TestService_LoadEmpty(t *testing.T) {
	svc := newTestService(t)

	snapshot, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("expected nil snapshot, got %+v", snapshot)
	}
}

func TestService_SaveRequiresAdmin(t *testing.T) {
	svc := newTestService(t)
	data := []approval.DrugApproval{record("NDA1", "2026-01-15")}

	if _, err := svc.Save(context.Background(), data, ""); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}

	viewer := auth.WithPrincipal(context.Background(), auth.Principal{Subject: "bob", Roles: []string{"viewer"}})
	if _, err := svc.Save(viewer, data, ""); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	versions, err := svc.Versions(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 0 {
		t.Errorf("expected rejected saves to leave no version, got %d", len(versions))
	}
}

func TestService_SaveThenLoad(t *testing.T) {
	svc := newTestService(t)
	ctx := adminContext()

	submitted := []approval.DrugApproval{
		record("NDA2", "2026-01-15"),
		record("NDA1", "2025-12-28"),
		record("NDA2", "2026-01-15"),
	}

	version, err := svc.Save(ctx, submitted, "initial import")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}

	snapshot, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot == nil || snapshot.Version != 1 {
		t.Fatalf("expected version 1 snapshot, got %+v", snapshot)
	}
	if len(snapshot.Records) != 2 {
		t.Fatalf("expected duplicates to be dropped, got %d records", len(snapshot.Records))
	}

	loaded := map[string]bool{}
	for _, r := range snapshot.Records {
		loaded[approval.IdentityKey(r)] = true
	}
	for _, r := range submitted {
		if !loaded[approval.IdentityKey(r)] {
			t.Errorf("submitted record %s missing after reload", approval.IdentityKey(r))
		}
	}
	if snapshot.Records[0].ApplicationNo != "NDA2" {
		t.Errorf("expected submission order to be kept, got %s first", snapshot.Records[0].ApplicationNo)
	}
	if snapshot.UpdatedAt.IsZero() {
		t.Error("expected updatedAt to be set")
	}
}

func TestService_VersionsAreAppendOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := adminContext()

	first := []approval.DrugApproval{record("NDA1", "2025-12-28")}
	second := append(first, record("BLA2", "2026-01-15"))

	if _, err := svc.Save(ctx, first, "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Save(ctx, second, "two"); err != nil {
		t.Fatal(err)
	}

	versions, err := svc.Versions(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions[0].Version != 2 || versions[0].RecordCount != 2 || versions[0].CreatedBy != "alice" {
		t.Errorf("unexpected newest version %+v", versions[0])
	}
	if versions[1].Version != 1 || versions[1].RecordCount != 1 || versions[1].Notes != "one" {
		t.Errorf("expected first version untouched, got %+v", versions[1])
	}
	if versions[0].Fingerprint != approval.Fingerprint(second) {
		t.Errorf("unexpected fingerprint %s", versions[0].Fingerprint)
	}

	snapshot, _ := svc.Load(context.Background())
	if snapshot.Version != 2 || len(snapshot.Records) != 2 {
		t.Errorf("expected load to return newest version, got %+v", snapshot)
	}
}

func TestService_SaveRequiresData(t *testing.T) {
	svc := newTestService(t)
	ctx := adminContext()

	if _, err := svc.Save(ctx, []approval.DrugApproval{record("NDA1", "2026-01-15")}, "seed"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Save(ctx, nil, "wipe"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}

	snapshot, err := svc.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Version != 1 || len(snapshot.Records) != 1 {
		t.Fatalf("rejected save must not publish a version, got v%d with %d records", snapshot.Version, len(snapshot.Records))
	}

	version, err := svc.Save(ctx, []approval.DrugApproval{}, "cleared")
	if err != nil {
		t.Fatalf("an explicit empty dataset is valid, got %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}
