package connector

import (
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults applied to every request unless the caller overrides them.
const (
	DefaultMethod        = http.MethodGet
	DefaultTimeoutMillis = 5000
	DefaultIgnoreErrors  = true
)

// RequestConfig is the fully resolved configuration of a single fetch.
// Treat values as immutable: Merge and the connector always work on copies.
type RequestConfig struct {
	Method        string
	Headers       map[string]string
	Body          []byte // nil means no body
	TimeoutMillis int
	IgnoreErrors  bool
}

// DefaultConfig returns the documented defaults: GET, no headers, no body, 5s, errors ignored.
func DefaultConfig() RequestConfig {
	return RequestConfig{
		Method:        DefaultMethod,
		Headers:       map[string]string{},
		TimeoutMillis: DefaultTimeoutMillis,
		IgnoreErrors:  DefaultIgnoreErrors,
	}
}

// Timeout converts TimeoutMillis to a time.Duration.
func (c RequestConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c RequestConfig) clone() RequestConfig {
	out := c
	out.Headers = maps.Clone(c.Headers)
	if out.Headers == nil {
		out.Headers = map[string]string{}
	}
	if c.Body != nil {
		out.Body = append([]byte{}, c.Body...)
	}
	return out
}

// PartialConfig carries caller overrides. A nil field is absent and falls back to the base config.
type PartialConfig struct {
	Method        *string
	Headers       map[string]string
	Body          []byte
	TimeoutMillis *int
	IgnoreErrors  *bool
}

// Merge overlays p on base key by key. The merge is shallow: a non-nil Headers map
// replaces the base headers entirely.
func Merge(base RequestConfig, p PartialConfig) RequestConfig {
	out := base.clone()
	if p.Method != nil {
		out.Method = *p.Method
	}
	if p.Headers != nil {
		out.Headers = maps.Clone(p.Headers)
	}
	if p.Body != nil {
		out.Body = append([]byte{}, p.Body...)
	}
	if p.TimeoutMillis != nil {
		out.TimeoutMillis = *p.TimeoutMillis
	}
	if p.IgnoreErrors != nil {
		out.IgnoreErrors = *p.IgnoreErrors
	}
	return out
}

// String returns a pointer to s for use in PartialConfig literals.
func String(s string) *string { return &s }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

func validate(rawURL string, cfg RequestConfig) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return &ConfigError{Field: "url", Reason: "must not be empty"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ConfigError{Field: "url", Reason: err.Error()}
	}
	if !u.IsAbs() || u.Host == "" {
		return &ConfigError{Field: "url", Reason: "must be an absolute URI"}
	}
	if strings.TrimSpace(cfg.Method) == "" {
		return &ConfigError{Field: "method", Reason: "must not be empty"}
	}
	if cfg.TimeoutMillis <= 0 {
		return &ConfigError{Field: "timeout_ms", Reason: "must be positive"}
	}
	return nil
}
