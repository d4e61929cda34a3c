// Package httpstore talks to a remote item-store API.
package httpstore

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

	"github.com/idilsaglam/royaltodo/internal/model"
	"github.com/idilsaglam/royaltodo/internal/store"
)

const itemsPath = "/api/items"

// TokenFunc returns the bearer token to send, or "" for none.
type TokenFunc func() string

// Client implements store.ItemStore over HTTP.
type Client struct {
	base  string
	http  *http.Client
	token TokenFunc
}

var _ store.ItemStore = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(fn TokenFunc) Option {
	return func(c *Client) { c.token = fn }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New validates baseURL and returns a client.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url must be http(s): %q", baseURL)
	}
	c := &Client{
		base: strings.TrimRight(u.String(), "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	if err := c.do(ctx, http.MethodGet, itemsPath, nil, &out); err != nil {
		return nil, store.Wrap("list", "", err)
	}
	if out == nil {
		out = []model.Task{}
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, f model.Fields) (model.Task, error) {
	var out model.Task
	if err := c.do(ctx, http.MethodPost, itemsPath, f, &out); err != nil {
		return model.Task{}, store.Wrap("create", "", err)
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id string, f model.Fields) (model.Task, error) {
	var out model.Task
	p := itemsPath + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, p, f, &out); err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var env store.Response
	decodeErr := json.Unmarshal(raw, &env)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusError(res.StatusCode, env.Error)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return errors.New(msg)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func statusError(code int, msg string) error {
	var base error
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		base = store.ErrUnauthorized
	case http.StatusNotFound:
		base = store.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base = store.ErrInvalid
	default:
		base = fmt.Errorf("http %d", code)
	}
	if msg == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, msg)
}
