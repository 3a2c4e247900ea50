package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/fdatracker/pkg/approval"
)

func TestLoad_Bundled(t *testing.T) {
	records, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("expected bundled records")
	}
	if len(approval.Deduplicate(records)) != len(records) {
		t.Error("expected bundled identity keys to be unique")
	}
	for _, r := range records {
		if _, ok := approval.ParseApprovalDate(r.ApprovalDate); !ok {
			t.Errorf("record %s has invalid date %q", r.ApplicationNo, r.ApprovalDate)
		}
		if r.ApprovalMonth != approval.Month(r) {
			t.Errorf("record %s month %q drifts from date %q", r.ApplicationNo, r.ApprovalMonth, r.ApprovalDate)
		}
		if r.FdaURL != nil && !approval.IsValidURL(*r.FdaURL) {
			t.Errorf("record %s has invalid fdaUrl", r.ApplicationNo)
		}
	}
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approvals.json")
	if err := os.WriteFile(path, []byte(`[{"approvalDate":"2026-01-15","applicationNo":"NDA1","brandName":"Alpha"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].BrandName != "Alpha" {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed file")
	}
}
