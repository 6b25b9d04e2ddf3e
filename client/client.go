// Package client is a Go client for the SocialNest API. A Client carries one
// Session: it logs in, attaches the access token to every call and rotates the
// token pair once when a call comes back 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"socialnest/internal/models"
)

// ErrSessionExpired is returned when a 401 could not be recovered by refreshing.
// The session is cleared when it is returned.
var ErrSessionExpired = errors.New("client: session expired")

// APIError is a non-2xx response decoded from the API's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Jar is replaced by
// the client's own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client talks to one API base URL, e.g. http://localhost:5000/api.
type Client struct {
	base    *url.URL
	http    *http.Client
	session *Session
}

// New builds a client for baseURL with an empty session.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base url %q needs a scheme and host", baseURL)
	}

	c := &Client{base: base, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: cookie jar: %w", err)
	}
	c.http.Jar = jar
	c.session = &Session{client: c}
	return c, nil
}

// Session returns the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// sessionCookies are the cookies the API sets on login and refresh.
var sessionCookies = []string{"accessToken", "refreshToken"}

// expireCookies drops the session cookies from the jar. The jar itself is
// shared with in-flight requests and is never swapped.
func (c *Client) expireCookies() {
	expired := make([]*http.Cookie, 0, len(sessionCookies))
	for _, name := range sessionCookies {
		expired = append(expired, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
	}
	c.http.Jar.SetCookies(c.base, expired)
}

// URL resolves an API path such as "/posts/3" against the base URL.
func (c *Client) URL(path string) string {
	return c.base.String() + "/" + strings.TrimLeft(path, "/")
}

// NewRequest builds a request for path. A non-nil body is encoded as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends req with the session's access token. On 401 it refreshes the
// session once and retries once. The caller closes the response body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if req.Body != nil && req.GetBody == nil {
		raw, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("client: buffer body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))
		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(raw)), nil }
	}

	token := c.session.accessToken()
	resp, err := c.send(req, token)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	drain(resp)

	if err := c.session.refreshAfter(ctx, token); err != nil {
		return nil, err
	}

	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return c.send(retry, c.session.accessToken())
}

func (c *Client) send(req *http.Request, token string) (*http.Response, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}
	return c.http.Do(req)
}

// call runs Do and decodes a JSON response into out, turning error statuses into *APIError.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// decode closes resp and fills out from a 2xx body.
func decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var body models.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{Status: resp.StatusCode, Code: body.Code, Message: body.Error}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
