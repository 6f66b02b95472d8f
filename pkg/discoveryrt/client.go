// Package discoveryrt is the transport used by clients generated with
// discovery2go. Generated code builds a target path and query, then hands the
// request to Client.Do.
package discoveryrt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client carries the base URL and credentials shared by every resource of a
// generated client.
type Client struct {
	// BaseURL is prefixed to every method path.
	BaseURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient Doer
	// Authorization is sent verbatim as the Authorization header when set,
	// e.g. "OAuth2 <token>" for Arvados or "Bearer <token>".
	Authorization string
	UserAgent     string
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(d Doer) Option { return func(c *Client) { c.HTTPClient = d } }
func WithUserAgent(ua string) Option { return func(c *Client) { c.UserAgent = ua } }

// WithToken sets the Authorization header to scheme followed by token.
func WithToken(scheme, token string) Option {
	return func(c *Client) { c.Authorization = strings.TrimSpace(scheme + " " + token) }
}

// NewClient returns a Client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{BaseURL: baseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveURL joins the base URL and a method path with exactly one slash.
func (c *Client) ResolveURL(path string) string {
	if c.BaseURL == "" {
		return path
	}
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// Do sends method to target with body JSON-encoded when non-nil, and decodes
// a 2xx response into out. Any other status yields an *Error.
func (c *Client) Do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("discoveryrt: encode %s %s body: %w", method, target, err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("discoveryrt: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Authorization != "" {
		req.Header.Set("Authorization", c.Authorization)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("discoveryrt: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{StatusCode: resp.StatusCode, Status: resp.Status, Body: data}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("discoveryrt: decode %s %s response: %w", method, target, err)
	}
	return nil
}
