package connector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/site-connector/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	msg string
	key string
	obj interface{}
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []logEntry
}

func (r *recordingLogger) DebugObj(string, string, interface{}) {}

func (r *recordingLogger) WarnObj(msg, key string, obj interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, logEntry{msg: msg, key: key, obj: obj})
}

func (r *recordingLogger) warnings() []logEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]logEntry(nil), r.warns...)
}

type failingClient struct {
	err error
}

func (f failingClient) Do(context.Context, httpclient.Request) (httpclient.Response, error) {
	return nil, f.err
}

type stubResponse struct {
	status int
	header http.Header
	body   []byte
}

func (s stubResponse) Body() []byte        { return s.body }
func (s stubResponse) StatusCode() int     { return s.status }
func (s stubResponse) StatusText() string  { return http.StatusText(s.status) }
func (s stubResponse) Header() http.Header { return s.header }

// slowClient answers after delay without looking at the request context.
type slowClient struct {
	delay time.Duration
}

func (s slowClient) Do(context.Context, httpclient.Request) (httpclient.Response, error) {
	time.Sleep(s.delay)
	return stubResponse{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"text/plain"}},
		body:   []byte("late"),
	}, nil
}

func serve(t *testing.T, contentType string, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchJSON(t *testing.T) {
	srv := serve(t, "application/json", http.StatusOK, `{"a":1}`)

	res, err := New().Fetch(context.Background(), srv.URL, PartialConfig{})
	require.NoError(t, err)
	require.Equal(t, KindJSON, res.Kind())

	v, ok := res.JSON()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": float64(1)}, v)
	assert.Equal(t, int64(1), res.Query("a").Int())
}

func TestFetchText(t *testing.T) {
	srv := serve(t, "text/plain", http.StatusOK, "hello")

	res, err := New().Fetch(context.Background(), srv.URL, PartialConfig{})
	require.NoError(t, err)

	s, ok := res.Text()
	require.True(t, ok)
	assert.Equal(t, "hello", s)
	assert.False(t, res.Query("a").Exists())
}

func TestFetchEmptyTextIsNotAbsent(t *testing.T) {
	srv := serve(t, "text/plain", http.StatusOK, "")

	res, err := New().Fetch(context.Background(), srv.URL, PartialConfig{})
	require.NoError(t, err)
	assert.False(t, res.IsAbsent())
	assert.Equal(t, KindText, res.Kind())
}

func TestFetchBinary(t *testing.T) {
	for _, ct := range []string{"application/octet-stream", "application/x-blob", "image/png"} {
		t.Run(ct, func(t *testing.T) {
			srv := serve(t, ct, http.StatusOK, "\x00\x01\x02")

			res, err := New().Fetch(context.Background(), srv.URL, PartialConfig{})
			require.NoError(t, err)

			b, ok := res.Binary()
			require.True(t, ok)
			assert.Equal(t, []byte{0, 1, 2}, b)
		})
	}
}

func TestFetchStatusErrorIgnored(t *testing.T) {
	srv := serve(t, "application/json", http.StatusNotFound, `{"error":"missing"}`)
	log := &recordingLogger{}

	res, err := New(WithLogger(log)).Fetch(context.Background(), srv.URL, PartialConfig{})
	require.NoError(t, err)
	assert.True(t, res.IsAbsent())

	warns := log.warnings()
	require.Len(t, warns, 1)
	assert.Equal(t, "request_error", warns[0].key)
	detail := warns[0].obj.(map[string]any)
	assert.Equal(t, 404, detail["status"])
	assert.Equal(t, "status", detail["reason"])
}

func TestFetchStatusErrorSurfaced(t *testing.T) {
	srv := serve(t, "text/plain", http.StatusNotFound, "nope")

	_, err := New().Fetch(context.Background(), srv.URL, PartialConfig{IgnoreErrors: Bool(false)})

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)
	assert.Equal(t, "Not Found", statusErr.StatusText)
}

func TestFetchTimeoutRegardlessOfIgnoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	for _, ignore := range []bool{true, false} {
		log := &recordingLogger{}
		_, err := New(WithLogger(log)).Fetch(context.Background(), srv.URL, PartialConfig{
			TimeoutMillis: Int(50),
			IgnoreErrors:  Bool(ignore),
		})

		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr, "ignoreErrors=%v", ignore)
		assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, log.warnings())
	}
}

func TestFetchTimeoutWhenClientIgnoresContext(t *testing.T) {
	c := New(WithClient(slowClient{delay: 150 * time.Millisecond}))

	start := time.Now()
	res, err := c.Fetch(context.Background(), "http://slow.test", PartialConfig{TimeoutMillis: Int(30)})
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.True(t, res.IsAbsent())
	assert.Less(t, elapsed, 140*time.Millisecond)
}

func TestFetchClientWithinTimeoutSucceeds(t *testing.T) {
	c := New(WithClient(slowClient{delay: 5 * time.Millisecond}))

	res, err := c.Fetch(context.Background(), "http://slow.test", PartialConfig{TimeoutMillis: Int(1000)})
	require.NoError(t, err)
	s, ok := res.Text()
	require.True(t, ok)
	assert.Equal(t, "late", s)
}

func TestFetchDecodeErrorNeverSuppressed(t *testing.T) {
	srv := serve(t, "application/json", http.StatusOK, "not json")

	res, err := New().Fetch(context.Background(), srv.URL, PartialConfig{IgnoreErrors: Bool(true)})

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.True(t, res.IsAbsent())
}

func TestFetchTransportErrorIgnored(t *testing.T) {
	log := &recordingLogger{}
	c := New(WithClient(failingClient{err: errors.New("dial tcp: connection refused")}), WithLogger(log))

	res, err := c.Fetch(context.Background(), "http://unreachable.test", PartialConfig{})
	require.NoError(t, err)
	assert.True(t, res.IsAbsent())
	require.Len(t, log.warnings(), 1)
}

func TestFetchTransportErrorSurfaced(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	c := New(WithClient(failingClient{err: cause}))

	_, err := c.Fetch(context.Background(), "http://unreachable.test", PartialConfig{IgnoreErrors: Bool(false)})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, cause)
}

func TestFetchRealTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := New().Fetch(context.Background(), addr, PartialConfig{IgnoreErrors: Bool(false)})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestFetchCallerCancellationIsNotSuppressed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := New().Fetch(ctx, srv.URL, PartialConfig{TimeoutMillis: Int(2000)})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchSendsConfiguredRequestWithCacheBypass(t *testing.T) {
	type seen struct {
		method, contentType, cacheControl, pragma, body string
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		got <- seen{
			method:       r.Method,
			contentType:  r.Header.Get("Content-Type"),
			cacheControl: r.Header.Get("Cache-Control"),
			pragma:       r.Header.Get("Pragma"),
			body:         string(buf),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":101}`))
	}))
	defer srv.Close()

	res, err := New().Fetch(context.Background(), srv.URL, PartialConfig{
		Method: String("post"),
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"cache-control": "max-age=600",
		},
		Body: []byte(`{"title":"foo","body":"bar","userId":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(101), res.Query("id").Int())

	s := <-got
	assert.Equal(t, http.MethodPost, s.method)
	assert.Equal(t, "application/json", s.contentType)
	assert.Equal(t, "no-cache", s.cacheControl)
	assert.Equal(t, "no-cache", s.pragma)
	assert.Equal(t, `{"title":"foo","body":"bar","userId":1}`, s.body)
}

func TestFetchRejectsInvalidInputEvenWhenIgnoringErrors(t *testing.T) {
	_, err := New().Fetch(context.Background(), "not a url", PartialConfig{IgnoreErrors: Bool(true)})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestWithDefaults(t *testing.T) {
	base := DefaultConfig()
	base.IgnoreErrors = false
	c := New(WithDefaults(base))
	base.IgnoreErrors = true

	assert.False(t, c.Defaults().IgnoreErrors)

	srv := serve(t, "text/plain", http.StatusInternalServerError, "boom")
	_, err := c.Fetch(context.Background(), srv.URL, PartialConfig{})
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.StatusCode)
}

func TestPackageFetch(t *testing.T) {
	srv := serve(t, "text/plain; charset=utf-8", http.StatusOK, "pong")

	res, err := Fetch(context.Background(), srv.URL, PartialConfig{})
	require.NoError(t, err)
	s, _ := res.Text()
	assert.Equal(t, "pong", s)
}
