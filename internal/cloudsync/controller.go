package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/filter"
	"github.com/mwantia/fdatracker/pkg/log"
)

type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusSaving        Status = "saving"
)

var (
	ErrSaveInProgress = errors.New("a save is already in progress")
	ErrNotReady       = errors.New("dataset is not ready")
	ErrInvalidRecord  = errors.New("record requires applicationNo, approvalDate and brandName")
)

// Persistence is the versioned store the controller loads from and saves to.
// Load returns nil without error when no version has been published.
type Persistence interface {
	Load(ctx context.Context) (*approval.Snapshot, error)
	Save(ctx context.Context, records []approval.DrugApproval, notes string) (int, error)
}

// State is a point-in-time view of the controller for status endpoints.
type State struct {
	Status       Status     `json:"status"`
	IsFromCloud  bool       `json:"isFromCloud"`
	CloudVersion int        `json:"cloudVersion,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	RecordCount  int        `json:"recordCount"`
	Fingerprint  string     `json:"fingerprint"`
	Dirty        bool       `json:"dirty"`
	LastError    string     `json:"lastError,omitempty"`
}

// Controller owns the working dataset. All mutation goes through its
// methods; readers always receive copies. The exported fields are the
// controller's dependencies, injected by the agent's service container.
type Controller struct {
	Persistence Persistence             `fabric:"inject"`
	Source      []approval.DrugApproval `fabric:"inject"`
	Log         log.LoggerService       `fabric:"logger:cloudsync"`

	mutex  sync.RWMutex
	saving sync.Mutex

	status      Status
	records     []approval.DrugApproval
	baseline    string
	edited      bool
	isFromCloud bool
	version     int
	updatedAt   time.Time
	lastErr     string
}

func NewController(p Persistence, source []approval.DrugApproval, logger log.LoggerService) *Controller {
	return &Controller{
		Persistence: p,
		Source:      source,
		Log:         logger,
		status:      StatusUninitialized,
	}
}

// Init loads the latest published dataset and merges the bundled source into
// it. Without a cloud dataset the bundled source becomes the working set.
// Init never fails; load errors are logged and recorded in State. A reload
// requested during a save waits for that save to finish.
func (c *Controller) Init(ctx context.Context) {
	c.saving.Lock()
	defer c.saving.Unlock()

	c.mutex.Lock()
	c.status = StatusLoading
	c.mutex.Unlock()

	snapshot, err := c.Persistence.Load(ctx)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.lastErr = ""
	c.edited = false
	if err != nil {
		c.Log.Warn("Unable to load cloud dataset, using bundled source: %v", err)
		c.lastErr = err.Error()
	}

	if err == nil && snapshot != nil {
		cloud := approval.Deduplicate(snapshot.Records)
		c.records = approval.MergeSourceWithCloud(c.Source, cloud)
		c.baseline = approval.Fingerprint(cloud)
		c.isFromCloud = true
		c.version = snapshot.Version
		c.updatedAt = snapshot.UpdatedAt
		c.Log.Info("Loaded cloud version %d (%d cloud records, %d after merge)",
			snapshot.Version, len(cloud), len(c.records))
	} else {
		c.records = approval.Deduplicate(c.Source)
		c.baseline = ""
		c.isFromCloud = false
		c.version = 0
		c.updatedAt = time.Time{}
		c.Log.Info("Using bundled source with %d records", len(c.records))
	}

	c.status = StatusReady
}

// Save persists the working dataset as a new version and then replaces it
// with what the store returns on reload. Overlapping saves are rejected.
// An unchanged dataset is not saved again; the current version is returned.
func (c *Controller) Save(ctx context.Context, notes string) (int, error) {
	if !c.saving.TryLock() {
		return 0, ErrSaveInProgress
	}
	defer c.saving.Unlock()

	c.mutex.Lock()
	if c.status != StatusReady {
		c.mutex.Unlock()
		return 0, ErrNotReady
	}
	records := clone(c.records)
	fingerprint := approval.Fingerprint(records)
	if !c.dirty() {
		version := c.version
		c.mutex.Unlock()
		c.Log.Debug("Dataset unchanged since version %d, skipping save", version)
		return version, nil
	}
	c.status = StatusSaving
	c.mutex.Unlock()

	version, err := c.Persistence.Save(ctx, records, notes)
	if err != nil {
		c.mutex.Lock()
		c.status = StatusReady
		c.lastErr = err.Error()
		c.mutex.Unlock()
		return 0, fmt.Errorf("failed to save dataset: %w", err)
	}

	snapshot, err := c.Persistence.Load(ctx)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.status = StatusReady
	c.isFromCloud = true

	if err != nil || snapshot == nil {
		// Local records stay as submitted; the version is known to exist.
		c.Log.Warn("Saved version %d but reload failed, keeping local dataset: %v", version, err)
		c.version = version
		c.baseline = fingerprint
		c.edited = false
		c.lastErr = fmt.Sprintf("reload after save failed: %v", err)
		return version, nil
	}

	c.records = approval.Deduplicate(snapshot.Records)
	c.baseline = approval.Fingerprint(c.records)
	c.edited = false
	c.version = snapshot.Version
	c.updatedAt = snapshot.UpdatedAt
	c.lastErr = ""

	c.Log.Info("Saved version %d, reloaded %d records", snapshot.Version, len(c.records))
	return version, nil
}

// ApplyUpload merges uploaded records into the working dataset and returns
// how many of them were new.
func (c *Controller) ApplyUpload(incoming []approval.DrugApproval) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.writable(); err != nil {
		return 0, err
	}

	merged, added := approval.MergeIncoming(c.records, incoming)
	c.records = merged
	if added > 0 {
		c.edited = true
	}
	return added, nil
}

// Upsert replaces the record with the same identity key, or appends it.
// It reports whether a new record was created.
func (c *Controller) Upsert(r approval.DrugApproval) (bool, error) {
	if r.ApplicationNo == "" || r.ApprovalDate == "" || r.BrandName == "" {
		return false, ErrInvalidRecord
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.writable(); err != nil {
		return false, err
	}

	key := approval.IdentityKey(r)
	for i := range c.records {
		if approval.IdentityKey(c.records[i]) == key {
			c.records[i] = r
			c.edited = true
			return false, nil
		}
	}

	c.records = append(c.records, r)
	c.edited = true
	return true, nil
}

// Remove deletes the record with the given identity key and reports whether
// it existed.
func (c *Controller) Remove(key string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.writable(); err != nil {
		return false, err
	}

	for i := range c.records {
		if approval.IdentityKey(c.records[i]) == key {
			c.records = append(c.records[:i:i], c.records[i+1:]...)
			c.edited = true
			return true, nil
		}
	}
	return false, nil
}

// writable must be called with mutex held. Edits accepted during a save
// would be replaced by the reload, so they are refused instead.
func (c *Controller) writable() error {
	switch c.status {
	case "", StatusUninitialized, StatusLoading:
		return ErrNotReady
	case StatusSaving:
		return ErrSaveInProgress
	}
	return nil
}

// Records returns a copy of the working dataset.
func (c *Controller) Records() []approval.DrugApproval {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return clone(c.records)
}

func (c *Controller) Filter(criteria filter.Criteria, now time.Time) []approval.DrugApproval {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return filter.Apply(c.records, criteria, now)
}

// Dirty reports whether the working dataset has local edits or otherwise
// differs from the last loaded or saved cloud version.
func (c *Controller) Dirty() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.dirty()
}

func (c *Controller) dirty() bool {
	if c.edited {
		return true
	}
	if !c.isFromCloud {
		return len(c.records) > 0
	}
	return approval.Fingerprint(c.records) != c.baseline
}

func (c *Controller) State() State {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	status := c.status
	if status == "" {
		status = StatusUninitialized
	}

	state := State{
		Status:       status,
		IsFromCloud:  c.isFromCloud,
		CloudVersion: c.version,
		RecordCount:  len(c.records),
		Fingerprint:  approval.Fingerprint(c.records),
		Dirty:        c.dirty(),
		LastError:    c.lastErr,
	}
	if !c.updatedAt.IsZero() {
		updatedAt := c.updatedAt
		state.UpdatedAt = &updatedAt
	}
	return state
}

func clone(records []approval.DrugApproval) []approval.DrugApproval {
	out := make([]approval.DrugApproval, len(records))
	copy(out, records)
	return out
}
