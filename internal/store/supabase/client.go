// Package supabase stores records in a hosted Postgres behind PostgREST.
// Every row carries the owning account in user_id, and each table's unique
// key is the composite (user_id, id): upserts resolve conflicts on that pair
// so one account can never merge into another account's row. The hosted
// schema's person_expenses.person_id foreign key cascades person deletes.
package supabase

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

	"github.com/sony/gobreaker"

	"khata/internal/log"
)

// Config holds the PostgREST endpoint and keys.
type Config struct {
	BaseURL    string
	APIKey     string
	ServiceKey string
	Timeout    time.Duration
}

// Client wraps HTTP calls to the PostgREST API. Calls go through a circuit
// breaker that fails fast while the backend is down; nothing is retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	bearer     string
	cb         *gobreaker.CircuitBreaker
}

// NewBreaker returns the breaker used for store calls: it opens after five
// requests with at least 60% failures and retries after ten seconds.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Client errors are our fault, not the backend's.
			var se *statusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil
		},
	})
}

func NewClient(cfg Config, httpClient *http.Client, cb *gobreaker.CircuitBreaker) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cb == nil {
		cb = NewBreaker("supabase")
	}
	bearer := cfg.ServiceKey
	if bearer == "" {
		bearer = cfg.APIKey
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		bearer:     bearer,
		cb:         cb,
	}
}

type statusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase %s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// query builds "table?k=v&..." with PostgREST operators already in the values.
func query(table string, params url.Values) string {
	if len(params) == 0 {
		return table
	}
	return table + "?" + params.Encode()
}

func eq(v string) string { return "eq." + v }

// do executes an authenticated request through the breaker.
func (c *Client) do(ctx context.Context, method, path string, body any, prefer string) ([]byte, error) {
	out, err := c.cb.Execute(func() (any, error) {
		return c.roundTrip(ctx, method, path, body, prefer)
	})
	if err != nil {
		return nil, err
	}
	b, _ := out.([]byte)
	return b, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, prefer string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/rest/v1/"+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "supabase: request failed",
			log.FieldMethod, method, log.FieldPath, path, log.FieldError, err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.WarnContext(ctx, "supabase: non-2xx response",
			log.FieldMethod, method, log.FieldPath, path, log.FieldStatusCode, resp.StatusCode)
		return nil, &statusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(respBody)}
	}
	slog.DebugContext(ctx, "supabase: request OK",
		log.FieldMethod, method, log.FieldPath, path, log.FieldStatusCode, resp.StatusCode)
	return respBody, nil
}

// get decodes a JSON array into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// conflictTarget is the per-account unique key every table carries.
const conflictTarget = "user_id,id"

// upsert inserts or merges one row keyed by (user_id, id).
func (c *Client) upsert(ctx context.Context, table string, row any) error {
	_, err := c.do(ctx, http.MethodPost, query(table, url.Values{"on_conflict": {conflictTarget}}), []any{row},
		"resolution=merge-duplicates,return=minimal")
	return err
}

func (c *Client) delete(ctx context.Context, table string, params url.Values) error {
	_, err := c.do(ctx, http.MethodDelete, query(table, params), nil, "return=minimal")
	return err
}
