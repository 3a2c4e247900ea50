package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mwantia/fdatracker/internal/auth"
	"github.com/mwantia/fdatracker/pkg/approval"
)

// Client talks to the persistence endpoint of a running agent.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Load returns the latest published dataset or nil when there is none.
func (c *Client) Load(ctx context.Context) (*approval.Snapshot, error) {
	resp, err := c.do(ctx, approval.PersistenceRequest{Action: approval.ActionLoad})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, nil
	}

	snapshot := &approval.Snapshot{
		Records: resp.Data,
		Version: resp.Version,
	}
	if resp.UpdatedAt != nil {
		snapshot.UpdatedAt = *resp.UpdatedAt
	}
	return snapshot, nil
}

// Save uploads records as a new version. The token must belong to an admin.
func (c *Client) Save(ctx context.Context, records []approval.DrugApproval, notes string) (int, error) {
	resp, err := c.do(ctx, approval.PersistenceRequest{
		Action: approval.ActionSave,
		Data:   records,
		Notes:  notes,
	})
	if err != nil {
		return 0, err
	}
	return resp.Version, nil
}

func (c *Client) do(ctx context.Context, body approval.PersistenceRequest) (*approval.PersistenceResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/persistence", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", body.Action, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return nil, auth.ErrUnauthenticated
	case http.StatusForbidden:
		return nil, auth.ErrForbidden
	}

	var out approval.PersistenceResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response (status %d): %w", body.Action, res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK || !out.Success {
		if out.Error == "" {
			out.Error = http.StatusText(res.StatusCode)
		}
		return nil, fmt.Errorf("%s failed: %s", body.Action, out.Error)
	}

	return &out, nil
}
