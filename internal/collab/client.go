// Package collab is the client for the hosted auth/collaboration store:
// row-level CRUD on its tables plus the two privileged RPCs for
// collaborator credential handling. The store is opaque; only the
// documented success/error contract is relied upon.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lbrode/clientspace/internal/domain"
)

// Table names in the collaboration store.
const (
	TableCollaborators      = "collaborators"
	TableSpaceCollaborators = "space_collaborators"
	TableNotifications      = "notifications"
	TableUserBranding       = "user_branding"
)

// Client talks to the collaboration store over its REST surface.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

// Config holds connection settings for the collaboration store.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// New creates a collaboration store client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger.With("component", "collab"),
	}
}

// Filters selects rows by field equality.
type Filters map[string]string

func (f Filters) encode() string {
	if len(f) == 0 {
		return ""
	}
	q := url.Values{}
	for field, value := range f {
		q.Set(field, "eq."+value)
	}
	return "?" + q.Encode()
}

// Select returns rows of a table matching the filters.
func (c *Client) Select(ctx context.Context, table string, filters Filters) ([]map[string]any, error) {
	var rows []map[string]any
	err := c.do(ctx, http.MethodGet, "/rest/v1/"+table+filters.encode(), nil, &rows)
	if err != nil {
		return nil, fmt.Errorf("collab.Select %s: %w", table, err)
	}
	return rows, nil
}

// Insert adds a row and returns the stored version.
func (c *Client) Insert(ctx context.Context, table string, row any) (map[string]any, error) {
	var rows []map[string]any
	err := c.do(ctx, http.MethodPost, "/rest/v1/"+table, row, &rows)
	if err != nil {
		return nil, fmt.Errorf("collab.Insert %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("collab.Insert %s: %w: empty representation", table, domain.ErrRemoteUnavailable)
	}
	return rows[0], nil
}

// Update patches rows matching the filters and returns the stored
// versions. An empty result means no row matched.
func (c *Client) Update(ctx context.Context, table string, filters Filters, patch any) ([]map[string]any, error) {
	var rows []map[string]any
	err := c.do(ctx, http.MethodPatch, "/rest/v1/"+table+filters.encode(), patch, &rows)
	if err != nil {
		return nil, fmt.Errorf("collab.Update %s: %w", table, err)
	}
	return rows, nil
}

// DeleteRows removes rows matching the filters.
func (c *Client) DeleteRows(ctx context.Context, table string, filters Filters) error {
	if len(filters) == 0 {
		return fmt.Errorf("collab.DeleteRows %s: refusing unfiltered delete", table)
	}
	if err := c.do(ctx, http.MethodDelete, "/rest/v1/"+table+filters.encode(), nil, nil); err != nil {
		return fmt.Errorf("collab.DeleteRows %s: %w", table, err)
	}
	return nil
}

// RPC invokes a stored procedure and decodes its JSON response into out.
func (c *Client) RPC(ctx context.Context, fn string, args any, out any) error {
	if err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+fn, args, out); err != nil {
		return fmt.Errorf("collab.RPC %s: %w", fn, err)
	}
	return nil
}

// Ping checks reachability with a minimal select.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Select(ctx, TableNotifications, Filters{"id": "00000000-0000-0000-0000-000000000000"})
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 400:
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return domain.ErrAlreadyExists
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return domain.ErrValidation
	default:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrRemoteUnavailable, err)
	}
	return nil
}
