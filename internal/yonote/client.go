// Package yonote is a thin client for the Yonote workspace API. All
// operations are authenticated POST calls returning an {ok, data} envelope.
// The client performs no retries; callers decide how to react to failures.
package yonote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/novikov-denis/yonote-tg-bot/internal/domain"
)

// DefaultBaseURL is the production Yonote API root.
const DefaultBaseURL = "https://app.yonote.ru/api"

const defaultTimeout = 10 * time.Second

// Client talks to one workspace on behalf of one token. Each instance owns
// a lazily created HTTP session that must be released with Close.
type Client struct {
	token   string
	baseURL string
	timeout time.Duration

	mu    sync.Mutex
	httpc *http.Client
}

// Option tweaks a Client.
type Option func(*Client)

// WithBaseURL points the client at a non-default API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the given API token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// session returns the underlying HTTP client, creating it on first use.
func (c *Client) session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: c.timeout}
	}
	return c.httpc
}

// Close releases the HTTP session. Safe to call on a client that never made
// a request.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpc != nil {
		c.httpc.CloseIdleConnections()
		c.httpc = nil
	}
}

// envelope is the success/data wrapper every endpoint responds with.
type envelope struct {
	Ok   bool            `json:"ok"`
	Data json.RawMessage `json:"data"`
}

// call POSTs a JSON body to the named operation and decodes the envelope.
func (c *Client) call(ctx context.Context, op string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.session().Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if !env.Ok {
		return fmt.Errorf("%s: api returned ok=false", op)
	}
	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", op, err)
		}
	}
	return nil
}

// AuthInfo describes the token's owner, used to validate a token on connect.
type AuthInfo struct {
	User struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// AuthInfo checks the token against auth.info and returns the identity.
func (c *Client) AuthInfo(ctx context.Context) (*AuthInfo, error) {
	var info AuthInfo
	if err := c.call(ctx, "auth.info", struct{}{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Events fetches a page of the workspace event feed, newest first.
func (c *Client) Events(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	req := struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}{limit, offset}

	var events []domain.Event
	if err := c.call(ctx, "events.list", req, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Document fetches a single document by id.
func (c *Client) Document(ctx context.Context, id string) (*domain.Document, error) {
	req := struct {
		ID string `json:"id"`
	}{id}

	var doc domain.Document
	if err := c.call(ctx, "documents.info", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Comments lists the comments of a document.
func (c *Client) Comments(ctx context.Context, documentID string) ([]domain.Comment, error) {
	req := struct {
		EntityID string `json:"entityId"`
	}{documentID}

	var comments []domain.Comment
	if err := c.call(ctx, "comments.list", req, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
