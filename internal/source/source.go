package source

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mwantia/fdatracker/pkg/approval"
)

//go:embed data/approvals.json
var bundled []byte

// Load returns the bundled dataset. A non-empty path replaces the dataset
// compiled into the binary with the JSON file at that path.
func Load(path string) ([]approval.DrugApproval, error) {
	data := bundled
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source dataset: %w", err)
		}
		data = raw
	}

	var records []approval.DrugApproval
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode source dataset: %w", err)
	}
	return records, nil
}
