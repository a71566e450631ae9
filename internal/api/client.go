// Package api is the HTTP client for the naija-meals backend.
//
// Every request carries the bearer token currently held in persisted storage.
// A 401 from any endpoint wipes the persisted session, cart and restaurant
// selection before the error is returned to the caller.
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
	"strings"
	"time"

	"github.com/google/uuid"

	"naija-meals/internal/common/logger"
	"naija-meals/internal/storage"
)

var (
	ErrUnauthorized = errors.New("session is no longer valid")
	ErrNotFound     = errors.New("not found")
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int
	Message string // backend-provided message, if any
	Body    []byte
	err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status code %d", e.Status)
}

func (e *Error) Unwrap() error { return e.err }

// Message picks the text to show a user for err: the backend's message when
// it sent one, the transport error text otherwise, else fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

type Client struct {
	baseURL        string
	http           *http.Client
	store          storage.Store
	log            *logger.Logger
	onUnauthorized func()
	now            func() time.Time
	newRequestID   func() string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l *logger.Logger) Option { return func(c *Client) { c.log = l } }

// WithUnauthorizedHook runs f after the persisted session has been wiped by a 401.
func WithUnauthorizedHook(f func()) Option { return func(c *Client) { c.onUnauthorized = f } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func New(baseURL string, store storage.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: 15 * time.Second},
		store:        store,
		log:          logger.NewNop(),
		now:          time.Now,
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", r.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := c.newRequestID()
	req.Header.Set("X-Request-ID", reqID)

	token, found, err := c.store.Get(ctx, storage.KeyToken)
	if err != nil {
		c.log.Warn("token_read_failed", err, map[string]any{"request_id": reqID})
	} else if found && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("api_request_failed", err, map[string]any{
			"request_id": reqID, "method": r.method, "path": r.path,
		})
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", r.path, err)
	}
	c.log.Debug("api_request", map[string]any{
		"request_id":  reqID,
		"method":      r.method,
		"path":        r.path,
		"status":      resp.StatusCode,
		"duration_ms": c.now().Sub(start).Milliseconds(),
	})

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateSession(ctx, reqID)
		return &Error{Status: resp.StatusCode, Message: payloadMessage(raw), Body: raw, err: ErrUnauthorized}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: payloadMessage(raw), Body: raw}
		if resp.StatusCode == http.StatusNotFound {
			apiErr.err = ErrNotFound
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.path, err)
	}
	return nil
}

func (c *Client) invalidateSession(ctx context.Context, reqID string) {
	// Detached from ctx so a caller that gave up still gets a clean slate.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.store.Remove(cctx, storage.InvalidSessionKeys...); err != nil {
		c.log.Error("session_invalidation_failed", err, map[string]any{"request_id": reqID})
	} else {
		c.log.Info("session_invalidated", map[string]any{"request_id": reqID})
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// payloadMessage pulls a human-readable message out of an error body.
func payloadMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, k := range []string{"message", "error", "detail"} {
			if s, ok := obj[k].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func pathID(s string) string { return url.PathEscape(s) }
