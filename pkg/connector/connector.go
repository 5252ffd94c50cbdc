// Package connector issues a single outbound HTTP request with defaults, a timeout
// and content-type-aware decoding of the response body.
package connector

import (
	"context"
	"strings"
	"sync"

	"github.com/samvad-hq/site-connector/pkg/httpclient"
)

// Connector performs fetches. It keeps no per-call state and is safe for concurrent use.
type Connector struct {
	client   httpclient.Client
	defaults RequestConfig
	log      Logger
}

// Option configures a Connector.
type Option func(*Connector)

// WithClient sets the transport used for requests.
func WithClient(client httpclient.Client) Option {
	return func(c *Connector) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets the logger receiving warnings for suppressed failures.
func WithLogger(log Logger) Option {
	return func(c *Connector) {
		c.log = ensureLogger(log)
	}
}

// WithDefaults replaces the base configuration partial configs are merged over.
func WithDefaults(cfg RequestConfig) Option {
	return func(c *Connector) {
		c.defaults = cfg.clone()
	}
}

// New builds a Connector backed by a resty client unless WithClient is given.
func New(opts ...Option) *Connector {
	c := &Connector{
		defaults: DefaultConfig(),
		log:      noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httpclient.NewRestyClient(0)
	}
	return c
}

// Defaults returns a copy of the base configuration.
func (c *Connector) Defaults() RequestConfig {
	return c.defaults.clone()
}

var (
	defaultOnce      sync.Once
	defaultConnector *Connector
)

// Fetch runs a request through a shared Connector built with New().
func Fetch(ctx context.Context, rawURL string, partial PartialConfig) (Result, error) {
	defaultOnce.Do(func() { defaultConnector = New() })
	return defaultConnector.Fetch(ctx, rawURL, partial)
}

// Fetch merges partial over the connector defaults, performs the request and decodes
// the body according to its Content-Type.
//
// Non-2xx statuses and transport failures are converted to Absent (with a warning)
// when IgnoreErrors is set. Timeouts, decode failures and invalid input always
// return an error.
func (c *Connector) Fetch(ctx context.Context, rawURL string, partial PartialConfig) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := Merge(c.defaults, partial)
	rawURL = strings.TrimSpace(rawURL)
	if err := validate(rawURL, cfg); err != nil {
		return Absent(), err
	}

	timeout := &TimeoutError{URL: rawURL, Timeout: cfg.Timeout()}
	reqCtx, cancel := context.WithTimeoutCause(ctx, cfg.Timeout(), timeout)
	defer cancel()

	resp, err := c.do(reqCtx, httpclient.Request{
		Method:  strings.ToUpper(strings.TrimSpace(cfg.Method)),
		URL:     rawURL,
		Headers: requestHeaders(cfg.Headers),
		Body:    cfg.Body,
	})
	if context.Cause(reqCtx) == error(timeout) {
		return Absent(), timeout
	}
	if err != nil {
		transportErr := &TransportError{URL: rawURL, Err: err}
		// The caller cancelling its own context is not a failure to hide.
		if cfg.IgnoreErrors && ctx.Err() == nil {
			c.warnSuppressed(rawURL, cfg, map[string]any{"reason": "transport", "error": err.Error()})
			return Absent(), nil
		}
		return Absent(), transportErr
	}

	code := resp.StatusCode()
	if code < 200 || code > 299 {
		if cfg.IgnoreErrors {
			c.warnSuppressed(rawURL, cfg, map[string]any{
				"reason":      "status",
				"status":      code,
				"status_text": resp.StatusText(),
			})
			return Absent(), nil
		}
		return Absent(), &HTTPStatusError{URL: rawURL, StatusCode: code, StatusText: resp.StatusText()}
	}

	contentType := resp.Header().Get("Content-Type")
	result, err := decodeBody(rawURL, contentType, resp.Body())
	if err != nil {
		return Absent(), err
	}
	c.log.DebugObj("request completed", "response_meta", map[string]any{
		"url":          rawURL,
		"method":       cfg.Method,
		"status":       code,
		"content_type": contentType,
		"kind":         result.Kind().String(),
		"bytes":        len(result.Raw()),
	})
	return result, nil
}

type doResult struct {
	resp httpclient.Response
	err  error
}

// do races the transport against ctx so a client that ignores cancellation
// cannot outlive the timer. The losing call is left to finish in the background.
func (c *Connector) do(ctx context.Context, req httpclient.Request) (httpclient.Response, error) {
	done := make(chan doResult, 1)
	go func() {
		resp, err := c.client.Do(ctx, req)
		done <- doResult{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

func (c *Connector) warnSuppressed(rawURL string, cfg RequestConfig, detail map[string]any) {
	detail["url"] = rawURL
	detail["method"] = cfg.Method
	c.log.WarnObj("request failed; returning absent value", "request_error", detail)
}

// requestHeaders copies caller headers and forces cache bypass, replacing any
// caller value for the same header regardless of case.
func requestHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+2)
	for k, v := range in {
		if strings.EqualFold(k, "Cache-Control") || strings.EqualFold(k, "Pragma") {
			continue
		}
		out[k] = v
	}
	out["Cache-Control"] = "no-cache"
	out["Pragma"] = "no-cache"
	return out
}
