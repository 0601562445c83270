package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every request made through an API.
const DefaultTimeout = 30 * time.Second

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.URL, e.Status)
}

// NotFound reports whether the server answered 404.
func (e *HTTPError) NotFound() bool { return e.Status == http.StatusNotFound }

// API is a small JSON client bound to a base URL.
type API struct {
	client  *http.Client
	baseURL string
	token   string
	agent   string
}

type Option func(*API)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(a *API) { a.token = token }
}

// WithClient replaces the default client (30s timeout).
func WithClient(client *http.Client) Option {
	return func(a *API) { a.client = client }
}

func WithUserAgent(agent string) Option {
	return func(a *API) { a.agent = agent }
}

func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		agent:   "mangaread",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) BaseURL() string { return a.baseURL }

func (a *API) Get(ctx context.Context, path string, params url.Values, v any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return a.do(ctx, http.MethodGet, path, nil, v)
}

func (a *API) Put(ctx context.Context, path string, body, v any) error {
	return a.do(ctx, http.MethodPut, path, body, v)
}

func (a *API) do(ctx context.Context, method, path string, body, v any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	target := a.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.agent != "" {
		req.Header.Set("User-Agent", a.agent)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{Method: method, URL: target, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}
