package approval

import (
	"reflect"
	"testing"
)

func rec(appNo, date string) DrugApproval {
	return DrugApproval{ApplicationNo: appNo, ApprovalDate: date, BrandName: appNo}
}

func keys(records []DrugApproval) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, IdentityKey(r))
	}
	return out
}

func TestDeduplicate_FirstOccurrenceWins(t *testing.T) {
	first := rec("NDA1", "2025-01-01")
	first.Notes = "first"
	dup := rec("NDA1", "2025-01-01")
	dup.Notes = "second"

	got := Deduplicate([]DrugApproval{first, rec("NDA2", "2025-02-01"), dup, rec("NDA3", "2025-03-01")})

	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Notes != "first" {
		t.Errorf("expected first occurrence to survive, got notes %q", got[0].Notes)
	}
	want := []string{"NDA1-2025-01-01-", "NDA2-2025-02-01-", "NDA3-2025-03-01-"}
	if !reflect.DeepEqual(keys(got), want) {
		t.Errorf("order = %v, want %v", keys(got), want)
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	input := []DrugApproval{
		rec("NDA1", "2025-01-01"),
		rec("NDA1", "2025-01-01"),
		rec("NDA1", "2025-05-01"),
		rec("BLA2", "2025-02-01"),
		rec("BLA2", "2025-02-01"),
	}

	once := Deduplicate(input)
	twice := Deduplicate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedup not idempotent: %v vs %v", keys(once), keys(twice))
	}
}

func TestDeduplicate_Empty(t *testing.T) {
	if got := Deduplicate(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestMergeIncoming(t *testing.T) {
	existing := []DrugApproval{rec("NDA1", "2025-01-01"), rec("NDA2", "2025-02-01")}

	conflicting := rec("NDA1", "2025-01-01")
	conflicting.Sponsor = "Changed Sponsor"
	incoming := []DrugApproval{conflicting, rec("NDA3", "2025-03-01"), rec("NDA3", "2025-03-01")}

	merged, added := MergeIncoming(existing, incoming)

	if added != 1 {
		t.Errorf("expected 1 net-new record, got %d", added)
	}
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged records, got %d", len(merged))
	}
	if merged[0].Sponsor != "" {
		t.Errorf("expected existing record to win, got sponsor %q", merged[0].Sponsor)
	}

	seen := map[string]bool{}
	for _, k := range keys(merged) {
		if seen[k] {
			t.Errorf("duplicate key %s after merge", k)
		}
		seen[k] = true
	}
	for _, k := range keys(existing) {
		if !seen[k] {
			t.Errorf("existing key %s missing after merge", k)
		}
	}
}

func TestMergeIncoming_DoesNotMutateInputs(t *testing.T) {
	existing := make([]DrugApproval, 1, 4)
	existing[0] = rec("NDA1", "2025-01-01")
	incoming := []DrugApproval{rec("NDA2", "2025-02-01")}

	MergeIncoming(existing, incoming)

	if len(existing) != 1 || existing[:2][1].ApplicationNo != "" {
		t.Error("expected existing backing array to stay untouched")
	}
}

func TestMergeSourceWithCloud_Ordering(t *testing.T) {
	source := []DrugApproval{rec("S1", "2025-01-01"), rec("C1", "2025-01-02"), rec("S2", "2025-01-03")}
	cloud := []DrugApproval{rec("C2", "2025-02-01"), rec("C1", "2025-01-02")}

	got := MergeSourceWithCloud(source, cloud)

	want := []string{"C2-2025-02-01-", "C1-2025-01-02-", "S1-2025-01-01-", "S2-2025-01-03-"}
	if !reflect.DeepEqual(keys(got), want) {
		t.Errorf("order = %v, want %v", keys(got), want)
	}
}

func TestMergeSourceWithCloud_CloudPriority(t *testing.T) {
	s := rec("NDA1", "2025-01-01")
	s.Sponsor = "Source Sponsor"
	s.FdaURL = String("https://www.fda.gov/drugs/new-page")

	c := rec("NDA1", "2025-01-01")
	c.Sponsor = "Cloud Sponsor"
	c.Notes = "admin correction"
	c.FdaURL = String("https://www.fda.gov/news-events/press-announcements/fda-approves-x")

	got := MergeSourceWithCloud([]DrugApproval{s}, []DrugApproval{c})
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}

	merged := got[0]
	if *merged.FdaURL != "https://www.fda.gov/drugs/new-page" {
		t.Errorf("expected unstable cloud URL to be replaced, got %q", *merged.FdaURL)
	}

	merged.FdaURL = c.FdaURL
	if !reflect.DeepEqual(merged, c) {
		t.Errorf("expected merged record to equal cloud record apart from fdaUrl: %+v", merged)
	}
	if *c.FdaURL != "https://www.fda.gov/news-events/press-announcements/fda-approves-x" {
		t.Error("expected cloud input to stay untouched")
	}
}

func TestMergeSourceWithCloud_EmptyInputs(t *testing.T) {
	source := []DrugApproval{rec("S1", "2025-01-01")}
	if got := MergeSourceWithCloud(source, nil); !reflect.DeepEqual(keys(got), keys(source)) {
		t.Errorf("expected source verbatim, got %v", keys(got))
	}

	cloud := []DrugApproval{rec("C1", "2025-01-01")}
	if got := MergeSourceWithCloud(nil, cloud); !reflect.DeepEqual(keys(got), keys(cloud)) {
		t.Errorf("expected cloud verbatim, got %v", keys(got))
	}
}

func TestShouldOverrideFdaURL(t *testing.T) {
	valid := "https://www.fda.gov/drugs/page"
	other := "https://www.fda.gov/drugs/other"
	unstable := UnstableURLPrefix + "fda-approves-drug"

	tests := []struct {
		name   string
		cloud  *string
		source *string
		want   bool
	}{
		{"source missing", String(valid), nil, false},
		{"source invalid", nil, String("not-a-url"), false},
		{"cloud missing", nil, String(valid), true},
		{"cloud invalid", String("www.fda.gov"), String(valid), true},
		{"cloud empty", String(""), String(valid), true},
		{"cloud unstable and different", String(unstable), String(valid), true},
		{"cloud unstable and equal", String(unstable), String(unstable), false},
		{"cloud stable and different", String(other), String(valid), false},
		{"cloud equals source", String(valid), String(valid), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldOverrideFdaURL(tt.cloud, tt.source); got != tt.want {
				t.Errorf("ShouldOverrideFdaURL() = %v, want %v", got, tt.want)
			}
		})
	}
}
