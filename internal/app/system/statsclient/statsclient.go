// Package statsclient reads the counter endpoints
// (/api/stats/wholesale, /api/alerts/pending) over HTTP.
//
// Every call is a single GET with no retry. Any failure (transport error,
// non-2xx status, undecodable body) is logged and reported as a
// zero-filled record with ok=false; callers never see an error.
//
// A non-zero workspace id is sent as the workspace_id query parameter so
// the serving instance counts that workspace only.
package statsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	WholesalePath = "/api/stats/wholesale"
	AlertsPath    = "/api/alerts/pending"

	// WorkspaceParam scopes a counter request to one workspace.
	WorkspaceParam = "workspace_id"

	maxBody = 1 << 16
)

// Client fetches counter records from BaseURL.
type Client struct {
	BaseURL string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
	HTTP   *http.Client
	Log    *zap.Logger
}

// New returns a client for baseURL. A nil httpClient uses a client with
// no overall timeout; the request context bounds the call.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient, Log: logger}
}

// Wholesale fetches the wholesale counters. NilObjectID asks for every
// workspace.
func (c *Client) Wholesale(ctx context.Context, workspaceID primitive.ObjectID) (models.WholesaleStats, bool) {
	var out models.WholesaleStats
	if err := c.get(ctx, WholesalePath, workspaceID, &out); err != nil {
		c.Log.Warn("wholesale stats unavailable; using zeros", zap.Error(err))
		return models.WholesaleStats{}, false
	}
	return out, true
}

// PendingAlerts fetches the pending-alert counters.
func (c *Client) PendingAlerts(ctx context.Context, workspaceID primitive.ObjectID) (models.AlertCounts, bool) {
	var out models.AlertCounts
	if err := c.get(ctx, AlertsPath, workspaceID, &out); err != nil {
		c.Log.Warn("pending alerts unavailable; using zeros", zap.Error(err))
		return models.AlertCounts{}, false
	}
	return out, true
}

func (c *Client) get(ctx context.Context, path string, workspaceID primitive.ObjectID, dst any) error {
	target := c.BaseURL + path
	if !workspaceID.IsZero() {
		target += "?" + url.Values{WorkspaceParam: {workspaceID.Hex()}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
