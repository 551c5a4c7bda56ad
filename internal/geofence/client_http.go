package geofence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPRegions talks to the device agent's region-watch API. The agent
// mirrors each registered spec into the OS geofencing service and reports
// transitions back through the ingest pipeline.
type HTTPRegions struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRegions constructs a client for the agent at baseURL.
func NewHTTPRegions(baseURL string, client *http.Client) *HTTPRegions {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPRegions{baseURL: baseURL, client: client}
}

func (c *HTTPRegions) RegisterRegion(ctx context.Context, spec RegionSpec) error {
	body, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal region spec: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/regions/"+url.PathEscape(spec.ID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("register region: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("register region: agent returned %s", resp.Status)
	}
	return nil
}

func (c *HTTPRegions) UnregisterRegion(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/regions/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("build unregister request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("unregister region: %w", err)
	}
	defer resp.Body.Close()

	// 404 means the watch is already gone; removal is idempotent.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unregister region: agent returned %s", resp.Status)
	}
	return nil
}
