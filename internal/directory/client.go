package directory

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

	"github.com/google/uuid"
)

// Directory is the remote user directory as seen by the controller.
// *Client implements it; tests substitute fakes.
type Directory interface {
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, draft Draft) (Reply, error)
	Update(ctx context.Context, id int, draft Draft) (Reply, error)
	Delete(ctx context.Context, id int) (Reply, error)
}

// Ensure Client implements Directory at compile time.
var _ Directory = (*Client)(nil)

// ErrNotArray is returned by List when the body is valid JSON but not an array.
var ErrNotArray = errors.New("users response is not a JSON array")

// Client talks to a JSONPlaceholder-style /users REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	// DefaultBaseURL is the public directory used when nothing is configured.
	DefaultBaseURL   = "https://jsonplaceholder.typicode.com"
	defaultUserAgent = "roster/0.1"
	jsonContentType  = "application/json; charset=UTF-8"
	requestIDHeader  = "X-Request-ID"
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized directory root.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// List fetches every user. The status code is not inspected: any response
// whose body decodes as a JSON array is accepted.
func (c *Client) List(ctx context.Context) ([]User, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	reply, err := c.send(ctx, http.MethodGet, c.usersURL(), nil)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(reply.Body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode response: empty body (status %d)", reply.Status)
	}
	if trimmed[0] != '[' {
		if json.Valid(trimmed) {
			return nil, fmt.Errorf("decode response: %w (status %d)", ErrNotArray, reply.Status)
		}
		return nil, fmt.Errorf("decode response: invalid JSON (status %d)", reply.Status)
	}
	var users []User
	if err := json.Unmarshal(trimmed, &users); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Create posts a new user.
func (c *Client) Create(ctx context.Context, draft Draft) (Reply, error) {
	if c == nil {
		return Reply{}, fmt.Errorf("client is nil")
	}
	return c.send(ctx, http.MethodPost, c.usersURL(), draft)
}

// Update replaces name and email of the user with the given id.
func (c *Client) Update(ctx context.Context, id int, draft Draft) (Reply, error) {
	if c == nil {
		return Reply{}, fmt.Errorf("client is nil")
	}
	return c.send(ctx, http.MethodPut, c.usersURL(strconv.Itoa(id)), draft)
}

// Delete removes the user with the given id.
func (c *Client) Delete(ctx context.Context, id int) (Reply, error) {
	if c == nil {
		return Reply{}, fmt.Errorf("client is nil")
	}
	return c.send(ctx, http.MethodDelete, c.usersURL(strconv.Itoa(id)), nil)
}

func (c *Client) usersURL(elem ...string) *url.URL {
	return c.baseURL.JoinPath(append([]string{"users"}, elem...)...)
}

func (c *Client) send(ctx context.Context, method string, target *url.URL, body any) (Reply, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Reply{}, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-type", jsonContentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{RequestID: requestID}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{Status: resp.StatusCode, RequestID: requestID}, fmt.Errorf("read response: %w", err)
	}
	return Reply{Status: resp.StatusCode, Body: data, RequestID: requestID}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
