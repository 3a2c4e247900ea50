package approval

import "time"

// Snapshot is the dataset of one published version as returned by a load.
type Snapshot struct {
	Records   []DrugApproval `json:"data"`
	Version   int            `json:"version"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
