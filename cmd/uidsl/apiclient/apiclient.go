// Package apiclient is a small HTTP client for the uidsl API server used by
// the CLI commands that inspect a running server.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/uidsl/api"
	"github.com/papercomputeco/uidsl/pkg/revision"
)

// DefaultTarget is the API server address used when none is given.
const DefaultTarget = "http://localhost:8081"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to a uidsl API server.
type Client struct {
	target string
	http   *http.Client
}

// New creates a Client for the server at target.
func New(target string) *Client {
	if target == "" {
		target = DefaultTarget
	}
	return &Client{
		target: strings.TrimRight(target, "/"),
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Revision fetches a single revision.
func (c *Client) Revision(ctx context.Context, id string) (*revision.Revision, error) {
	var rev revision.Revision
	if err := c.get(ctx, "/revisions/"+url.PathEscape(id), &rev); err != nil {
		return nil, err
	}
	return &rev, nil
}

// History fetches the lineage of a revision, oldest first.
func (c *Client) History(ctx context.Context, id string) (*api.HistoryResponse, error) {
	var history api.HistoryResponse
	if err := c.get(ctx, "/revisions/"+url.PathEscape(id)+"/history", &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// AssetRevisions fetches every revision of an asset.
func (c *Client) AssetRevisions(ctx context.Context, assetID string) (*api.AssetRevisionsResponse, error) {
	var resp api.AssetRevisionsResponse
	if err := c.get(ctx, "/assets/"+url.PathEscape(assetID)+"/revisions", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.ErrorResponse
		_ = json.Unmarshal(body, &apiErr)
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing API response: %w", err)
	}
	return nil
}
