package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jszwec/csvutil"
	"github.com/mwantia/fdatracker/pkg/approval"
)

var (
	ErrNoHeader       = errors.New("upload has no header row")
	ErrMissingColumns = errors.New("upload is missing the brandName or approvalDate column")
)

// Result is the outcome of one import. Rows without a brand name or a
// parseable approval date are counted as rejected and dropped.
type Result struct {
	Records  []approval.DrugApproval `json:"-"`
	Accepted int                     `json:"accepted"`
	Rejected int                     `json:"rejected"`
}

// row mirrors one uploaded line. Every column is read as text and converted
// afterwards so a single malformed cell rejects the row instead of the file.
type row struct {
	ApprovalDate       string `csv:"approvalDate"`
	ApprovalMonth      string `csv:"approvalMonth"`
	ApplicationNo      string `csv:"applicationNo"`
	NdaBlaNumber       string `csv:"ndaBlaNumber"`
	ApplicationType    string `csv:"applicationType"`
	BrandName          string `csv:"brandName"`
	ActiveIngredient   string `csv:"activeIngredient"`
	Sponsor            string `csv:"sponsor"`
	IndicationFull     string `csv:"indicationFull"`
	TherapeuticArea    string `csv:"therapeuticArea"`
	IsOncology         string `csv:"isOncology"`
	IsBiosimilar       string `csv:"isBiosimilar"`
	IsNovelDrug        string `csv:"isNovelDrug"`
	IsOrphanDrug       string `csv:"isOrphanDrug"`
	IsCberProduct      string `csv:"isCberProduct"`
	ApprovalType       string `csv:"approvalType"`
	SupplementCategory string `csv:"supplementCategory"`
	Notes              string `csv:"notes"`
	FdaURL             string `csv:"fdaUrl"`
}

// Parse reads a CSV upload. The header row may use the canonical field names
// or any of their English and Korean aliases.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	raw, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header := CanonicalHeader(raw)
	if !contains(header, "brandName") || !contains(header, "approvalDate") {
		return nil, ErrMissingColumns
	}

	rows := &paddedReader{reader: reader, width: len(header)}
	decoder, err := csvutil.NewDecoder(rows, header...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder: %w", err)
	}

	result := &Result{}
	for {
		var rw row
		if err := decoder.Decode(&rw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if rows.err != nil {
				return nil, fmt.Errorf("failed to read upload: %w", rows.err)
			}
			result.Rejected++
			continue
		}

		record, ok := rw.toApproval()
		if !ok {
			result.Rejected++
			continue
		}

		result.Records = append(result.Records, record)
		result.Accepted++
	}

	return result, nil
}

func (rw row) toApproval() (approval.DrugApproval, bool) {
	brand := strings.TrimSpace(rw.BrandName)
	date, ok := NormalizeDate(rw.ApprovalDate)
	if brand == "" || !ok {
		return approval.DrugApproval{}, false
	}

	record := approval.DrugApproval{
		ApprovalDate:     date,
		ApprovalMonth:    strings.TrimSpace(rw.ApprovalMonth),
		ApplicationNo:    strings.TrimSpace(rw.ApplicationNo),
		NdaBlaNumber:     strings.TrimSpace(rw.NdaBlaNumber),
		ApplicationType:  strings.TrimSpace(rw.ApplicationType),
		BrandName:        brand,
		ActiveIngredient: strings.TrimSpace(rw.ActiveIngredient),
		Sponsor:          strings.TrimSpace(rw.Sponsor),
		IndicationFull:   strings.TrimSpace(rw.IndicationFull),
		TherapeuticArea:  strings.TrimSpace(rw.TherapeuticArea),
		IsOncology:       ParseBool(rw.IsOncology),
		IsBiosimilar:     ParseBool(rw.IsBiosimilar),
		IsNovelDrug:      ParseBool(rw.IsNovelDrug),
		IsOrphanDrug:     ParseBool(rw.IsOrphanDrug),
		ApprovalType:     strings.TrimSpace(rw.ApprovalType),
		Notes:            strings.TrimSpace(rw.Notes),
	}

	if record.ApprovalMonth == "" {
		record.ApprovalMonth = approval.Month(record)
	}
	if v := strings.TrimSpace(rw.IsCberProduct); v != "" {
		record.IsCberProduct = approval.Bool(ParseBool(v))
	}
	if v := strings.TrimSpace(rw.SupplementCategory); v != "" {
		record.SupplementCategory = approval.String(v)
	}
	if v := strings.TrimSpace(rw.FdaURL); v != "" {
		record.FdaURL = approval.String(v)
	}

	return record, true
}

// ParseBool accepts the yes/no spellings found in exported spreadsheets.
// Anything unrecognised is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "o", "✓", "예", "네", "참":
		return true
	}
	return false
}

// NormalizeDate converts the date spellings of common spreadsheet exports to
// YYYY-MM-DD. Year-first dates may use '-', '/' or '.' separators; dates with
// the year last are read as MM/DD/YYYY.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Format(time.DateOnly), true
	}

	s = strings.TrimSuffix(strings.ReplaceAll(s, " ", ""), ".")
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})
	if len(parts) != 3 {
		return "", false
	}

	var year, month, day string
	switch {
	case len(parts[0]) == 4:
		year, month, day = parts[0], parts[1], parts[2]
	case len(parts[2]) == 4:
		month, day, year = parts[0], parts[1], parts[2]
	default:
		return "", false
	}

	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// CanonicalHeader maps uploaded column names onto the field names of row.
// Unknown and repeated columns get placeholder names that decode nowhere.
func CanonicalHeader(raw []string) []string {
	header := make([]string, len(raw))
	used := map[string]bool{}

	for i, name := range raw {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		canonical, ok := aliases[normalizeHeader(name)]
		if !ok || used[canonical] {
			header[i] = fmt.Sprintf("_column%d", i)
			continue
		}
		used[canonical] = true
		header[i] = canonical
	}
	return header
}

func normalizeHeader(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// paddedReader evens out ragged rows so every record matches the header.
// err keeps the first non-EOF read failure; those are fatal for the upload,
// unlike a row that fails to decode.
type paddedReader struct {
	reader *csv.Reader
	width  int
	err    error
}

func (p *paddedReader) Read() ([]string, error) {
	record, err := p.reader.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) && p.err == nil {
			p.err = err
		}
		return nil, err
	}
	switch {
	case len(record) < p.width:
		record = append(record, make([]string, p.width-len(record))...)
	case len(record) > p.width:
		record = record[:p.width]
	}
	return record, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
