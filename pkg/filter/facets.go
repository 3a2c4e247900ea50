package filter

import (
	"sort"

	"github.com/mwantia/fdatracker/pkg/approval"
)

// Facets lists the distinct values offered by the categorical filters.
type Facets struct {
	ApplicationTypes []string `json:"applicationTypes"`
	Sponsors         []string `json:"sponsors"`
	TherapeuticAreas []string `json:"therapeuticAreas"`
}

// Summary holds the headline counts of a (filtered) dataset.
type Summary struct {
	Total       int `json:"total"`
	Oncology    int `json:"oncology"`
	Biosimilar  int `json:"biosimilar"`
	Novel       int `json:"novel"`
	Orphan      int `json:"orphan"`
	Supplements int `json:"supplements"`
}

func Options(records []approval.DrugApproval) Facets {
	types := map[string]struct{}{}
	sponsors := map[string]struct{}{}
	areas := map[string]struct{}{}

	for _, r := range records {
		add(types, r.ApplicationType)
		add(sponsors, r.Sponsor)
		add(areas, r.TherapeuticArea)
	}

	return Facets{
		ApplicationTypes: sorted(types),
		Sponsors:         sorted(sponsors),
		TherapeuticAreas: sorted(areas),
	}
}

func Summarize(records []approval.DrugApproval) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		if r.IsOncology {
			s.Oncology++
		}
		if r.IsBiosimilar {
			s.Biosimilar++
		}
		if r.IsNovelDrug {
			s.Novel++
		}
		if r.IsOrphanDrug {
			s.Orphan++
		}
		if approval.IsSupplement(r) {
			s.Supplements++
		}
	}
	return s
}

func add(set map[string]struct{}, v string) {
	if v != "" {
		set[v] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
