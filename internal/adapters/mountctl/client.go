// Package mountctl is a client for the mount controller's HTTP API.
package mountctl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

// StatusError is returned for non-2xx controller responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mount controller %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type horizonBody struct {
	Points []domain.BoundaryPoint `json:"points"`
}

// Client implements ports.MountController.
type Client struct {
	base    string
	timeout time.Duration
	http    *fasthttp.Client
}

// Option customises a Client.
type Option func(*Client)

// WithDial replaces the dialer, e.g. with an in-memory listener in tests.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// New creates a client for the controller at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "horizonmask",
			MaxConnsPerHost:     4,
			MaxIdleConnDuration: 30 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Status returns the mount's current pointing position.
func (c *Client) Status(ctx context.Context) (domain.MountPosition, error) {
	var pos domain.MountPosition
	if err := c.do(ctx, fasthttp.MethodGet, "/status", nil, &pos); err != nil {
		return domain.MountPosition{}, err
	}
	if pos.Time.IsZero() {
		pos.Time = time.Now().UTC()
	}
	return pos, nil
}

// PushHorizon writes the horizon limit to the controller.
func (c *Client) PushHorizon(ctx context.Context, points []domain.BoundaryPoint) error {
	return c.do(ctx, fasthttp.MethodPut, "/horizon", horizonBody{Points: points}, nil)
}

// ReadHorizon reads back the horizon limit the controller enforces.
func (c *Client) ReadHorizon(ctx context.Context) ([]domain.BoundaryPoint, error) {
	var body horizonBody
	if err := c.do(ctx, fasthttp.MethodGet, "/horizon", nil, &body); err != nil {
		return nil, err
	}
	return body.Points, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(data)
	}

	if err := c.http.DoTimeout(req, resp, c.deadline(ctx)); err != nil {
		return fmt.Errorf("mount controller %s %s: %w", method, path, err)
	}

	code := resp.StatusCode()
	if code < 200 || code > 299 {
		body := truncate(string(resp.Body()), maxErrorBody)
		return &StatusError{Method: method, Path: path, Code: code, Body: body}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// deadline is the client timeout, shortened to the context deadline.
func (c *Client) deadline(ctx context.Context) time.Duration {
	d := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}

const maxErrorBody = 256

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
