// Package gateway is the thin client over the hosted record store: plain
// CRUD on named collections, field projection, equality filters. No retry
// lives here; retry policy belongs to callers.
package gateway

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
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lbrode/clientspace/internal/domain"
)

// Collection names of the record store.
const (
	CollectionClients    = "clients"
	CollectionTasks      = "tasks"
	CollectionMilestones = "milestones"
	CollectionInvoices   = "invoices"
	CollectionProspects  = "prospects"
)

// ListOptions narrows a List call.
type ListOptions struct {
	// Filter matches records by field equality.
	Filter map[string]string
	// Fields projects the response to the named fields.
	Fields []string
	Limit  int
	Offset int
}

// ListResult is one page of records.
type ListResult struct {
	Records []domain.Record `json:"records"`
	HasMore bool            `json:"has_more"`
}

// Client talks to the record store. The token bucket paces outgoing calls
// so a burst of cache misses does not trip the remote throttle.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// Config holds the connection settings for the record store.
type Config struct {
	BaseURL  string
	APIToken string
	// Timeout bounds one request; it surfaces as ErrRemoteUnavailable.
	Timeout time.Duration
	// RatePerSecond and Burst configure client-side pacing.
	RatePerSecond float64
	Burst         int
}

// New creates a record store client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 4
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 8
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		log:     logger.With("component", "gateway"),
	}
}

// List returns records of a collection matching the options.
func (c *Client) List(ctx context.Context, collection string, opts ListOptions) (*ListResult, error) {
	q := url.Values{}
	for field, value := range opts.Filter {
		q.Set("filter["+field+"]", value)
	}
	if len(opts.Fields) > 0 {
		q.Set("fields", strings.Join(opts.Fields, ","))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	endpoint := "/" + collection
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var result ListResult
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("gateway.List %s: %w", collection, err)
	}
	return &result, nil
}

// Get returns a single record by id.
func (c *Client) Get(ctx context.Context, collection, id string) (domain.Record, error) {
	var rec domain.Record
	if err := c.do(ctx, http.MethodGet, "/"+collection+"/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, fmt.Errorf("gateway.Get %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

// Create inserts a record and returns the stored row.
func (c *Client) Create(ctx context.Context, collection string, payload domain.Record) (domain.Record, error) {
	var rec domain.Record
	if err := c.do(ctx, http.MethodPost, "/"+collection, payload, &rec); err != nil {
		return nil, fmt.Errorf("gateway.Create %s: %w", collection, err)
	}
	return rec, nil
}

// Update patches a record by id and returns the stored row.
func (c *Client) Update(ctx context.Context, collection, id string, payload domain.Record) (domain.Record, error) {
	var rec domain.Record
	if err := c.do(ctx, http.MethodPatch, "/"+collection+"/"+url.PathEscape(id), payload, &rec); err != nil {
		return nil, fmt.Errorf("gateway.Update %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

// Delete removes a record by id.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/"+collection+"/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("gateway.Delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Ping checks reachability with a minimal list call.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.List(ctx, CollectionClients, ListOptions{Limit: 1, Fields: []string{"id"}})
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for request slot: %w", err)
	}

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
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		// Transport failures and timeouts are the recoverable kind.
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrRemoteUnavailable, err)
	}
	return nil
}

// mapStatus translates HTTP status codes into the domain error taxonomy.
func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, readErrorBody(resp))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	default:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}
}

func readErrorBody(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	return strings.TrimSpace(string(data))
}
