package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/fdatracker/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrations.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestMigrator_UpIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db)
	ctx := context.Background()

	count, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != len(allMigrations()) {
		t.Errorf("expected %d migrations applied, got %d", len(allMigrations()), count)
	}

	count, err = m.Up(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no pending migrations, got %d", count)
	}

	if !db.Migrator().HasTable(&models.DataVersion{}) || !db.Migrator().HasTable(&models.ApprovalRow{}) {
		t.Error("expected dataset tables to exist")
	}
}

func TestMigrator_StatusAndRollback(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db)
	ctx := context.Background()

	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range statuses {
		if s.Applied {
			t.Errorf("expected migration %d to be pending", s.Version)
		}
	}

	if err := m.Migrate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rolled, err := m.Rollback(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rolled.Version != 2 {
		t.Errorf("expected migration 2 to be rolled back, got %d", rolled.Version)
	}

	statuses, err = m.Status(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !statuses[0].Applied || statuses[0].AppliedAt == nil {
		t.Error("expected migration 1 to remain applied")
	}
	if statuses[1].Applied {
		t.Error("expected migration 2 to be pending after rollback")
	}
}

func TestMigrator_RollbackWithoutHistory(t *testing.T) {
	m := NewMigrator(openTestDB(t))
	if _, err := m.Rollback(context.Background()); err == nil {
		t.Fatal("expected error when nothing has been applied")
	}
}
