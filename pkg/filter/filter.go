package filter

import (
	"fmt"
	"net/url"
	"time"

	"github.com/mwantia/fdatracker/pkg/approval"
)

// All is the value of any criterion that does not constrain the result.
const All = "all"

type DateRange string

const (
	RangeAll      DateRange = "all"
	RangeCustom   DateRange = "custom"
	RangeMonth    DateRange = "1m"
	RangeQuarter  DateRange = "3m"
	RangeHalfYear DateRange = "6m"
	RangeYear     DateRange = "1y"
	RangeTwoYears DateRange = "2y"
)

// Valid reports whether r is one of the known date ranges.
func (r DateRange) Valid() bool {
	switch r {
	case RangeAll, RangeCustom, RangeMonth, RangeQuarter, RangeHalfYear, RangeYear, RangeTwoYears:
		return true
	}
	return false
}

// Criteria is the transient, per-session filter state of the dashboard.
type Criteria struct {
	DateRange       DateRange `json:"dateRange"`
	StartDate       string    `json:"startDate,omitempty"`
	EndDate         string    `json:"endDate,omitempty"`
	ApplicationType string    `json:"applicationType"`
	Sponsor         string    `json:"sponsor"`
	TherapeuticArea string    `json:"therapeuticArea"`
	IsOncology      string    `json:"isOncology"`
	IsBiosimilar    string    `json:"isBiosimilar"`
	IsNovelDrug     string    `json:"isNovelDrug"`
	IsOrphanDrug    string    `json:"isOrphanDrug"`
}

// Default returns criteria that match every record.
func Default() Criteria {
	return Criteria{
		DateRange:       RangeAll,
		ApplicationType: All,
		Sponsor:         All,
		TherapeuticArea: All,
		IsOncology:      All,
		IsBiosimilar:    All,
		IsNovelDrug:     All,
		IsOrphanDrug:    All,
	}
}

// Reset restores the defaults in place.
func (c *Criteria) Reset() {
	*c = Default()
}

// Cutoff returns the earliest approval instant included by a relative date
// range. Subtraction is calendar based and starts from the beginning of now's
// UTC day; the day is clamped to the last day of the target month.
func Cutoff(rng DateRange, now time.Time) (time.Time, bool) {
	var months int
	switch rng {
	case RangeMonth:
		months = 1
	case RangeQuarter:
		months = 3
	case RangeHalfYear:
		months = 6
	case RangeYear:
		months = 12
	case RangeTwoYears:
		months = 24
	default:
		return time.Time{}, false
	}
	return subtractMonths(startOfDay(now), months), true
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Millisecond)
}

func subtractMonths(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()-time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()

	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

// Apply returns the records matching every criterion, in input order. now is
// the reference instant for relative date ranges.
func Apply(records []approval.DrugApproval, criteria Criteria, now time.Time) []approval.DrugApproval {
	date := newDatePredicate(criteria, now)
	result := make([]approval.DrugApproval, 0, len(records))

	for _, r := range records {
		if matches(r, criteria, date) {
			result = append(result, r)
		}
	}

	return result
}

func matches(r approval.DrugApproval, c Criteria, date datePredicate) bool {
	if !date(r) {
		return false
	}
	if !matchString(c.ApplicationType, r.ApplicationType) {
		return false
	}
	if !matchString(c.Sponsor, r.Sponsor) {
		return false
	}
	if !matchString(c.TherapeuticArea, r.TherapeuticArea) {
		return false
	}
	if !matchBool(c.IsOncology, r.IsOncology) {
		return false
	}
	if !matchBool(c.IsBiosimilar, r.IsBiosimilar) {
		return false
	}
	if !matchBool(c.IsNovelDrug, r.IsNovelDrug) {
		return false
	}
	return matchBool(c.IsOrphanDrug, r.IsOrphanDrug)
}

// An empty criterion behaves like "all" so that partially filled criteria
// decoded from JSON do not silently exclude everything.
func matchString(criterion, value string) bool {
	return criterion == "" || criterion == All || criterion == value
}

func matchBool(criterion string, value bool) bool {
	switch criterion {
	case "", All:
		return true
	case "true":
		return value
	case "false":
		return !value
	}
	return false
}

type datePredicate func(approval.DrugApproval) bool

func newDatePredicate(c Criteria, now time.Time) datePredicate {
	switch c.DateRange {
	case "", RangeAll:
		return func(approval.DrugApproval) bool { return true }

	case RangeCustom:
		start, hasStart := approval.ParseApprovalDate(c.StartDate)
		end, hasEnd := approval.ParseApprovalDate(c.EndDate)
		if hasEnd {
			end = endOfDay(end)
		}
		return func(r approval.DrugApproval) bool {
			t, ok := approval.ParseApprovalDate(r.ApprovalDate)
			if !ok {
				return false
			}
			if hasStart && t.Before(start) {
				return false
			}
			if hasEnd && t.After(end) {
				return false
			}
			return true
		}
	}

	cutoff, ok := Cutoff(c.DateRange, now)
	if !ok {
		return func(approval.DrugApproval) bool { return false }
	}
	return func(r approval.DrugApproval) bool {
		t, ok := approval.ParseApprovalDate(r.ApprovalDate)
		return ok && !t.Before(cutoff)
	}
}

// ParseQuery decodes criteria from URL query parameters. Missing parameters
// keep their "all" defaults.
func ParseQuery(values url.Values) (Criteria, error) {
	c := Default()

	if v := values.Get("dateRange"); v != "" {
		c.DateRange = DateRange(v)
		if !c.DateRange.Valid() {
			return c, fmt.Errorf("unknown dateRange %q", v)
		}
	}
	if c.DateRange == RangeCustom {
		c.StartDate = values.Get("startDate")
		c.EndDate = values.Get("endDate")
		if c.StartDate != "" {
			if _, ok := approval.ParseApprovalDate(c.StartDate); !ok {
				return c, fmt.Errorf("invalid startDate %q", c.StartDate)
			}
		}
		if c.EndDate != "" {
			if _, ok := approval.ParseApprovalDate(c.EndDate); !ok {
				return c, fmt.Errorf("invalid endDate %q", c.EndDate)
			}
		}
	}

	fields := map[string]*string{
		"applicationType": &c.ApplicationType,
		"sponsor":         &c.Sponsor,
		"therapeuticArea": &c.TherapeuticArea,
		"isOncology":      &c.IsOncology,
		"isBiosimilar":    &c.IsBiosimilar,
		"isNovelDrug":     &c.IsNovelDrug,
		"isOrphanDrug":    &c.IsOrphanDrug,
	}
	for name, dst := range fields {
		if v := values.Get(name); v != "" {
			*dst = v
		}
	}

	return c, nil
}
