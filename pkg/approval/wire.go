package approval

import "time"

const (
	ActionLoad = "load"
	ActionSave = "save"
)

// PersistenceRequest is the body of POST /api/persistence. A save must carry
// data; an explicit empty array is a valid (empty) dataset, null is not.
type PersistenceRequest struct {
	Action string         `json:"action"`
	Data   []DrugApproval `json:"data"`
	Notes  string         `json:"notes,omitempty"`
}

// PersistenceResponse answers a load. A load without any published version
// carries a null data field.
type PersistenceResponse struct {
	Success   bool           `json:"success"`
	Data      []DrugApproval `json:"data"`
	Version   int            `json:"version,omitempty"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// SaveResponse answers a save, and any request rejected before an action ran.
type SaveResponse struct {
	Success bool   `json:"success"`
	Version int    `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}
