package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// Option tweaks the underlying resty client.
type Option func(*resty.Client)

// WithLogger routes resty's internal warnings through l.
func WithLogger(l resty.Logger) Option {
	return func(c *resty.Client) {
		if l != nil {
			c.SetLogger(l)
		}
	}
}

// NewRestyClient creates a new RestyClient. A zero timeout leaves deadlines to the request context.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout, opts...)}
}

// newRestyBaseClient creates a resty.Client with the cookie jar resty installs by default,
// so credentials stored by earlier responses are always sent.
func newRestyBaseClient(timeout time.Duration, opts ...Option) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.SetAllowGetMethodPayload(true)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs the request described by req using ctx for cancellation.
func (r *RestyClient) Do(ctx context.Context, req Request) (Response, error) {
	if r == nil || r.client == nil {
		return nil, fmt.Errorf("resty client is not initialized")
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(method, req.URL)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }

// StatusText returns the reason phrase of the status line, e.g. "Not Found".
func (r *restyResponseAdapter) StatusText() string {
	code := r.resp.StatusCode()
	text := strings.TrimSpace(strings.TrimPrefix(r.resp.Status(), strconv.Itoa(code)))
	if text == "" {
		return http.StatusText(code)
	}
	return text
}
