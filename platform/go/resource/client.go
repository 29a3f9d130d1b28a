package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// listPageSize is the page size requested from the store. List follows the
// paging envelope until the whole collection is fetched, so screens always
// render the full row set.
const listPageSize = 500

// Config captures the wiring for a resource store client.
type Config struct {
	// BaseURL is the root of the resource store, e.g. http://127.0.0.1:8090.
	BaseURL string
	// Token is an optional bearer token forwarded on every request.
	Token string
	// Timeout bounds each request; zero selects a 15s default.
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client issues list/get/create/update/delete requests against named record
// collections on a document-style REST store. Failures propagate to the
// caller as typed errors; the client never retries.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ListOptions controls filtering, ordering and relation expansion for List.
type ListOptions struct {
	// TenantID scopes the listing to one tenant. Ignored when Global is set.
	TenantID string
	// TenantField names the record field holding the tenant reference.
	TenantField string
	// Global disables tenant filtering entirely, regardless of TenantID.
	Global bool
	// Filter is an optional extra predicate ANDed with the tenant filter.
	Filter string
	// Sort is a comma-separated field list; a leading '-' sorts descending.
	Sort string
	// Expand lists relation field names to resolve into embedded objects.
	Expand []string
}

// listEnvelope mirrors the store's paged list response.
type listEnvelope struct {
	Items      []Record `json:"items"`
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
}

// New constructs a Client for the store at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("resource store base url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: base, token: cfg.Token, httpClient: httpClient}, nil
}

// List fetches the records of a collection. Tenant-scoped collections are
// filtered by equality on the tenant field unless the collection is global.
func (c *Client) List(ctx context.Context, collection string, opts ListOptions) ([]Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("perPage", fmt.Sprintf("%d", listPageSize))

	if filter := buildFilter(opts); filter != "" {
		query.Set("filter", filter)
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if len(opts.Expand) > 0 {
		query.Set("expand", strings.Join(opts.Expand, ","))
	}

	var records []Record
	for page := 1; ; page++ {
		query.Set("page", fmt.Sprintf("%d", page))
		endpoint := fmt.Sprintf("%s/api/collections/%s/records?%s", c.baseURL, url.PathEscape(collection), query.Encode())

		var envelope listEnvelope
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &envelope); err != nil {
			return nil, fmt.Errorf("list %s page %d: %w", collection, page, err)
		}

		records = append(records, envelope.Items...)
		if len(records) >= envelope.TotalItems || len(envelope.Items) == 0 {
			break
		}
	}

	return records, nil
}

// Get fetches a single record by id, optionally expanding relation fields.
func (c *Client) Get(ctx context.Context, collection, id string, expand []string) (Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("record id is required")
	}

	endpoint := fmt.Sprintf("%s/api/collections/%s/records/%s", c.baseURL, url.PathEscape(collection), url.PathEscape(id))
	if len(expand) > 0 {
		endpoint += "?expand=" + url.QueryEscape(strings.Join(expand, ","))
	}

	var record Record
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &record); err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}

	return record, nil
}

// Create persists a new record and returns the stored representation.
func (c *Client) Create(ctx context.Context, collection string, payload map[string]any) (Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errors.New("payload is required")
	}

	endpoint := fmt.Sprintf("%s/api/collections/%s/records", c.baseURL, url.PathEscape(collection))

	var record Record
	if err := c.do(ctx, http.MethodPost, endpoint, payload, &record); err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}

	return record, nil
}

// Update overwrites the mutable fields of an existing record.
func (c *Client) Update(ctx context.Context, collection, id string, payload map[string]any) (Record, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("record id is required")
	}
	if len(payload) == 0 {
		return nil, errors.New("payload is required")
	}

	endpoint := fmt.Sprintf("%s/api/collections/%s/records/%s", c.baseURL, url.PathEscape(collection), url.PathEscape(id))

	var record Record
	if err := c.do(ctx, http.MethodPatch, endpoint, payload, &record); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	return record, nil
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("record id is required")
	}

	endpoint := fmt.Sprintf("%s/api/collections/%s/records/%s", c.baseURL, url.PathEscape(collection), url.PathEscape(id))

	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload map[string]any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resource store request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// buildFilter combines the tenant scope with any extra predicate. Global
// collections never receive a tenant filter.
func buildFilter(opts ListOptions) string {
	var clauses []string

	if !opts.Global && opts.TenantID != "" {
		field := opts.TenantField
		if field == "" {
			field = "church"
		}
		clauses = append(clauses, fmt.Sprintf("%s='%s'", field, escapeFilterValue(opts.TenantID)))
	}
	if strings.TrimSpace(opts.Filter) != "" {
		clauses = append(clauses, "("+opts.Filter+")")
	}

	return strings.Join(clauses, " && ")
}

func escapeFilterValue(value string) string {
	return strings.ReplaceAll(value, "'", "\\'")
}

func validateCollection(collection string) error {
	if strings.TrimSpace(collection) == "" {
		return errors.New("collection name is required")
	}
	return nil
}
