// Package restclient issues console requests against the order API using
// fiber's HTTP agent.
package restclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"orderconsole/internal/console"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds a single request. Zero means no limit.
	Timeout time.Duration
	Logger  *log.Entry
}

// Client implements console.Doer over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *log.Entry
}

var _ console.Doer = (*Client)(nil)

// New creates a Client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("restclient: base url is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("restclient: base url %q must start with http:// or https://", cfg.BaseURL)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "restclient")
	}
	return &Client{baseURL: base, timeout: cfg.Timeout, logger: logger}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type result struct {
	resp *console.Response
	err  error
}

// Do sends req and returns the response whatever its status. Only transport
// failures and cancellation are returned as errors.
func (c *Client) Do(ctx context.Context, req console.Request) (*console.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	url := c.baseURL + req.Path

	a := fiber.AcquireAgent()
	r := a.Request()
	r.Header.SetMethod(req.Method)
	r.SetRequestURI(url)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	a.Set(RequestIDHeader, requestID)
	if req.Body != nil {
		a.ContentType(fiber.MIMEApplicationJSON)
		a.Body(req.Body)
	}
	if c.timeout > 0 {
		a.Timeout(c.timeout)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return nil, fmt.Errorf("prepare %s %s: %w", req.Method, url, err)
	}

	entry := c.logger.WithFields(log.Fields{
		"request_id": requestID,
		"method":     req.Method,
		"url":        url,
	})
	entry.Debug("sending request")

	done := make(chan result, 1)
	go func() {
		// Bytes releases the agent.
		code, body, errs := a.Bytes()
		if len(errs) > 0 {
			done <- result{err: fmt.Errorf("%s %s: %w", req.Method, url, errors.Join(errs...))}
			return
		}
		done <- result{resp: &console.Response{StatusCode: code, Body: body}}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			entry.WithError(res.err).Warn("request failed")
			return nil, res.err
		}
		entry.WithField("status", res.resp.StatusCode).Debug("response received")
		return res.resp, nil
	case <-ctx.Done():
		entry.Warn("request abandoned")
		return nil, ctx.Err()
	}
}
