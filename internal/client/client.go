// Package client talks to the travelchat HTTP backend.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/zhouzirui/travel-tavern/backend/internal/model/chat"
)

// Reply is the body of a POST /chat response. Exactly one of Response or
// Error is normally set.
type Reply struct {
	Response string `json:"response,omitempty"`
	HTML     string `json:"html,omitempty"`
	Error    string `json:"error,omitempty"`
}

// History is the transcript bound to the client's session cookie.
type History struct {
	SessionID string         `json:"sessionId"`
	Messages  []chat.Message `json:"messages"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Code)
	}
	return fmt.Sprintf("HTTP error! status: %d: %s", e.Code, e.Body)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar should be set
// for session history to follow the conversation.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the cookies held for the server, including the session.
func (c *Client) Cookies() []*http.Cookie {
	if c.http.Jar == nil {
		return nil
	}
	return c.http.Jar.Cookies(c.baseURL)
}

// SetCookies restores cookies from an earlier run.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if c.http.Jar == nil || len(cookies) == 0 {
		return
	}
	c.http.Jar.SetCookies(c.baseURL, cookies)
}

// Chat sends one message with POST /chat.
func (c *Client) Chat(ctx context.Context, message string) (Reply, error) {
	body, err := sonic.Marshal(map[string]string{"message": message})
	if err != nil {
		return Reply{}, fmt.Errorf("encode request: %w", err)
	}

	var reply Reply
	if err := c.do(ctx, http.MethodPost, "/chat", bytes.NewReader(body), &reply); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// History fetches the session transcript.
func (c *Client) History(ctx context.Context) (History, error) {
	var history History
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, &history); err != nil {
		return History{}, err
	}
	return history, nil
}

// Reset clears the session transcript.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/history", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
