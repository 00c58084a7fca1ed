package toggl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hoursync/pkg/retry"
)

// Client is the HTTP wrapper for the Toggl Track REST API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a new Toggl HTTP client.
func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListTimeEntries fetches time entries via GET /me/time_entries.
// meta=true makes Toggl inline client ids and names on each entry.
func (c *Client) ListTimeEntries(ctx context.Context, opt ListTimeEntriesOptions) ([]TimeEntry, error) {
	q := url.Values{}
	q.Set("meta", "true")
	if !opt.Since.IsZero() {
		q.Set("since", strconv.FormatInt(opt.Since.Unix(), 10))
	}
	reqURL := fmt.Sprintf("%s/me/time_entries?%s", c.baseURL, q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build time entries request: %w", err)
	}
	httpReq.SetBasicAuth(c.apiToken, "api_token")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call toggl time entries API: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "time entries"); err != nil {
		return nil, err
	}

	var entries []TimeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode toggl time entries response: %w", err)
	}

	if opt.Running != nil {
		filtered := entries[:0]
		for _, e := range entries {
			if e.IsRunning() == *opt.Running {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	return entries, nil
}

// ListClients fetches the clients of a workspace via GET /workspaces/{id}/clients.
func (c *Client) ListClients(ctx context.Context, workspaceID int64) ([]TogglClient, error) {
	reqURL := fmt.Sprintf("%s/workspaces/%d/clients", c.baseURL, workspaceID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build clients request: %w", err)
	}
	httpReq.SetBasicAuth(c.apiToken, "api_token")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call toggl clients API: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "clients"); err != nil {
		return nil, err
	}

	var clients []TogglClient
	if err := json.NewDecoder(resp.Body).Decode(&clients); err != nil {
		return nil, fmt.Errorf("failed to decode toggl clients response: %w", err)
	}
	return clients, nil
}

// checkStatus turns non-200 responses into errors, classifying provider-side
// timeouts as retryable.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout {
		return fmt.Errorf("%w: toggl API %s error %d: %s", retry.ErrTimeout, op, resp.StatusCode, string(raw))
	}
	return fmt.Errorf("toggl API %s error %d: %s", op, resp.StatusCode, string(raw))
}
