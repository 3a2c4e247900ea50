package approval

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DrugApproval represents a single FDA approval event for a drug product.
type DrugApproval struct {
	ApprovalDate       string  `json:"approvalDate"`
	ApprovalMonth      string  `json:"approvalMonth"`
	ApplicationNo      string  `json:"applicationNo"`
	NdaBlaNumber       string  `json:"ndaBlaNumber"`
	ApplicationType    string  `json:"applicationType"`
	BrandName          string  `json:"brandName"`
	ActiveIngredient   string  `json:"activeIngredient"`
	Sponsor            string  `json:"sponsor"`
	IndicationFull     string  `json:"indicationFull"`
	TherapeuticArea    string  `json:"therapeuticArea"`
	IsOncology         bool    `json:"isOncology"`
	IsBiosimilar       bool    `json:"isBiosimilar"`
	IsNovelDrug        bool    `json:"isNovelDrug"`
	IsOrphanDrug       bool    `json:"isOrphanDrug"`
	IsCberProduct      *bool   `json:"isCberProduct,omitempty"`
	ApprovalType       string  `json:"approvalType"`
	SupplementCategory *string `json:"supplementCategory,omitempty"`
	Notes              string  `json:"notes"`
	FdaURL             *string `json:"fdaUrl,omitempty"`
}

const (
	// UnstableURLPrefix is the FDA press-release path whose pages are
	// routinely removed after publication.
	UnstableURLPrefix = "https://www.fda.gov/news-events/press-announcements/"

	drugsAtFDAOverview = "https://www.accessdata.fda.gov/scripts/cder/daf/index.cfm?event=overview.process&ApplNo=%s"
)

// IdentityKey returns the key identifying one approval event across all
// data sources. Every dedup, merge and persistence path must use it.
func IdentityKey(r DrugApproval) string {
	supplement := ""
	if r.SupplementCategory != nil {
		supplement = *r.SupplementCategory
	}
	return r.ApplicationNo + "-" + r.ApprovalDate + "-" + supplement
}

// IsSupplement reports whether the approval is a supplemental (label change)
// approval rather than the original one.
func IsSupplement(r DrugApproval) bool {
	if r.SupplementCategory == nil {
		return false
	}
	return strings.Contains(strings.ToUpper(*r.SupplementCategory), "SUPPL")
}

// ParseApprovalDate parses a date-only or RFC3339 timestamp into UTC.
func ParseApprovalDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Month returns the YYYY-MM prefix of the approval date, or an empty string
// when the date is too short to carry one.
func Month(r DrugApproval) string {
	if len(r.ApprovalDate) < 7 {
		return ""
	}
	return r.ApprovalDate[:7]
}

// IsValidURL reports whether s is an absolute http(s) URL with a host.
func IsValidURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// LookupURL returns the record's own fdaUrl when it can be trusted, otherwise
// the Drugs@FDA overview page for its application number.
func LookupURL(r DrugApproval) string {
	if r.FdaURL != nil && IsValidURL(*r.FdaURL) {
		return *r.FdaURL
	}
	return fmt.Sprintf(drugsAtFDAOverview, applicationDigits(r.ApplicationNo))
}

func applicationDigits(applicationNo string) string {
	var b strings.Builder
	for _, c := range applicationNo {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// String returns a pointer to s, for optional fields.
func String(s string) *string {
	return &s
}

// Bool returns a pointer to b, for optional fields.
func Bool(b bool) *bool {
	return &b
}
