// Package upstream talks to the Shahnameh corpus HTTP API.
//
// It has exactly one operation, FetchJSON, which turns every outcome of a GET
// request into either a JSON payload or absence. Nothing in this package
// returns an error to its callers.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// RequestTimeout bounds every upstream request. It is not configurable.
	RequestTimeout = 30 * time.Second

	// DefaultUserAgent identifies this client to the upstream API.
	DefaultUserAgent = "shahnameh-mcp-server/1.0"
)

var errStatus = errors.New("non-2xx status")

// Client performs GET requests against the upstream API.
type Client struct {
	http      *http.Client
	userAgent string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewClient creates a client that identifies itself as userAgent and logs
// diagnostics to log. An empty userAgent falls back to DefaultUserAgent.
func NewClient(userAgent string, log zerolog.Logger) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		http:      &http.Client{},
		userAgent: userAgent,
		timeout:   RequestTimeout,
		log:       log,
	}
}

// FetchJSON issues a GET for rawURL and returns the decoded body as Found,
// or Absent on any failure: bad URL, transport error, timeout, redirect
// loop, non-2xx status or a body that is not JSON.
func (c *Client) FetchJSON(ctx context.Context, rawURL string) Result {
	log := c.logger(ctx).With().Str("url", rawURL).Logger()

	payload, err := c.get(ctx, rawURL, &log)
	if err != nil {
		log.Debug().Err(err).Msg("Upstream request yielded no usable JSON")
		return Absent()
	}
	return Found(payload)
}

func (c *Client) get(ctx context.Context, rawURL string, log *zerolog.Logger) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			body, err = nil, fmt.Errorf("panic during request: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
	}

	evt := log.Info().Int("status", resp.StatusCode)
	if location := resp.Header.Get("Location"); location != "" {
		evt = evt.Str("location", location)
	}
	evt.Msg("Upstream responded")

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("body is not valid JSON (%d bytes)", len(body))
	}

	parsed := gjson.ParseBytes(body)
	summary := log.Debug().Str("json_type", parsed.Type.String())
	if parsed.IsArray() {
		summary = summary.Int64("items", parsed.Get("#").Int())
	}
	summary.Msg("Decoded upstream payload")

	return body, nil
}

// logger prefers the per-call logger carried in ctx over the client default.
func (c *Client) logger(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if ctxLog := zerolog.Ctx(ctx); ctxLog != nil && ctxLog.GetLevel() != zerolog.Disabled {
			return ctxLog
		}
	}
	return &c.log
}
