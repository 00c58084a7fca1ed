package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hoursync/pkg/retry"
)

const apiVersion = "2022-06-28"

// Client is the HTTP wrapper for the Notion REST API. One Client per
// integration token; the workspace repository pools several to multiply
// read throughput.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a new Notion HTTP client.
func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// RetrievePage fetches a single page by id via GET /pages/{id}.
func (c *Client) RetrievePage(ctx context.Context, id string) (*Page, error) {
	reqURL := fmt.Sprintf("%s/pages/%s", c.baseURL, id)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build retrieve page request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call notion retrieve page API: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "retrieve page"); err != nil {
		return nil, err
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: failed to decode notion page: %v", ErrSchemaMismatch, err)
	}
	return &page, nil
}

// QueryDatabase queries a database via POST /databases/{id}/query. A nil
// filter returns every record (paginated internally).
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter *Filter) ([]Page, error) {
	reqURL := fmt.Sprintf("%s/databases/%s/query", c.baseURL, databaseID)

	var pages []Page
	cursor := ""
	for {
		payload := queryRequest{Filter: filter, StartCursor: cursor}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal query request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build query request: %w", err)
		}
		c.setHeaders(httpReq)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("failed to call notion query API: %w", err)
		}

		var queryResp queryResponse
		err = func() error {
			defer resp.Body.Close()
			if err := checkStatus(resp, "query database"); err != nil {
				return err
			}
			if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
				return fmt.Errorf("%w: failed to decode notion query response: %v", ErrSchemaMismatch, err)
			}
			return nil
		}()
		if err != nil {
			return nil, err
		}

		pages = append(pages, queryResp.Results...)
		if !queryResp.HasMore || queryResp.NextCursor == "" {
			return pages, nil
		}
		cursor = queryResp.NextCursor
	}
}

// UpdatePage patches page properties via PATCH /pages/{id} and returns the
// updated page.
func (c *Client) UpdatePage(ctx context.Context, id string, properties map[string]Property) (*Page, error) {
	reqURL := fmt.Sprintf("%s/pages/%s", c.baseURL, id)

	body, err := json.Marshal(updateRequest{Properties: properties})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal update page request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build update page request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call notion update page API: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "update page"); err != nil {
		return nil, err
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: failed to decode notion update response: %v", ErrSchemaMismatch, err)
	}
	return &page, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
}

func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	raw, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: notion API %s", ErrNotFound, op)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: notion API %s error %d: %s", retry.ErrTimeout, op, resp.StatusCode, string(raw))
	}
	return fmt.Errorf("notion API %s error %d: %s", op, resp.StatusCode, string(raw))
}
