// Package api implements the finance ports over the DevBills REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"devbills/internal/core"
	"devbills/internal/finance"
)

// DefaultTimeout bounds every call to the API.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 4 << 10

// Client talks to the transactions and categories endpoints.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

var _ finance.Backend = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// used as the base of the bearer transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a client for baseURL. tokens may be nil for anonymous access.
func New(baseURL string, timeout time.Duration, tokens TokenFunc, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must use http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{baseURL: u, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.http
	hc.Timeout = timeout
	hc.Transport = &BearerTransport{Base: c.http.Transport, Token: tokens}
	c.http = &hc
	return c, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps well-known statuses onto the finance sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return finance.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return finance.ErrUnauthorized
	default:
		return nil
	}
}

func monthQuery(p core.Period) url.Values {
	q := url.Values{}
	q.Set("month", strconv.Itoa(p.Month))
	q.Set("year", strconv.Itoa(p.Year))
	return q
}

// ListTransactions calls GET /transactions.
func (c *Client) ListTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	q := monthQuery(filter.Period())
	if filter.CategoryID != "" {
		q.Set("categoryId", filter.CategoryID)
	}
	if filter.Type != "" {
		q.Set("type", filter.Type.String())
	}
	var out []core.Transaction
	if err := c.do(ctx, http.MethodGet, []string{"transactions"}, q, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Transaction{}
	}
	return out, nil
}

// Summary calls GET /transactions/summary.
func (c *Client) Summary(ctx context.Context, p core.Period) (core.TransactionSummary, error) {
	var out core.TransactionSummary
	if err := c.do(ctx, http.MethodGet, []string{"transactions", "summary"}, monthQuery(p), nil, &out); err != nil {
		return core.TransactionSummary{}, err
	}
	return out, nil
}

// Monthly calls GET /transactions/monthly. The series may arrive as a bare
// array or wrapped as {"history": [...]}.
func (c *Client) Monthly(ctx context.Context, p core.Period, count int) ([]core.MonthlyItem, error) {
	q := monthQuery(p)
	q.Set("count", strconv.Itoa(count))
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, []string{"transactions", "monthly"}, q, nil, &raw); err != nil {
		return nil, err
	}
	return decodeMonthly(raw)
}

func decodeMonthly(raw json.RawMessage) ([]core.MonthlyItem, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []core.MonthlyItem{}, nil
	}
	var items []core.MonthlyItem
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode monthly series: %w", err)
		}
		return items, nil
	}
	var wrapped struct {
		History []core.MonthlyItem `json:"history"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode monthly series: %w", err)
	}
	if wrapped.History == nil {
		return []core.MonthlyItem{}, nil
	}
	return wrapped.History, nil
}

type createTransactionRequest struct {
	Description string               `json:"description"`
	Amount      json.Number          `json:"amount"`
	Date        string               `json:"date"`
	CategoryID  string               `json:"categoryId"`
	Type        core.TransactionType `json:"type"`
}

// CreateTransaction calls POST /transactions.
func (c *Client) CreateTransaction(ctx context.Context, in core.CreateTransactionInput) (core.Transaction, error) {
	body := createTransactionRequest{
		Description: in.Description,
		Amount:      json.Number(in.Amount.String()),
		Date:        in.WireDate(),
		CategoryID:  in.CategoryID,
		Type:        in.Type,
	}
	var out core.Transaction
	if err := c.do(ctx, http.MethodPost, []string{"transactions"}, nil, body, &out); err != nil {
		return core.Transaction{}, err
	}
	return out, nil
}

// DeleteTransaction calls DELETE /transactions/{id}.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("transaction id: %w", finance.ErrNotFound)
	}
	return c.do(ctx, http.MethodDelete, []string{"transactions", url.PathEscape(id)}, nil, nil, nil)
}

// ListCategories calls GET /categories.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.do(ctx, http.MethodGet, []string{"categories"}, nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Category{}
	}
	return out, nil
}

// Ping checks that the API answers at all. Any status below 500 counts as
// reachable since the root may require authentication.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping api: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("ping api: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, segments []string, query url.Values, body, out any) error {
	u := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	path := "/" + strings.Join(segments, "/")

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
