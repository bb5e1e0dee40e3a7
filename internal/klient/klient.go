// Package klient talks to the metrics backend on behalf of the dashboard.
//
// Every call is scoped to an explicit project.Active, is signed by the configured
// tokens.Signer and issues at most one request. Reads that the dashboard loads
// lazily go through the shared cache. Transport failures are returned as they are,
// there is no retry at this layer.
package klient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/vinceanalytics/dash/internal/caches"
	"github.com/vinceanalytics/dash/internal/dates"
	"github.com/vinceanalytics/dash/internal/metrics"
	"github.com/vinceanalytics/dash/internal/tokens"
)

const RequestIDHeader = "X-Request-Id"

// maximum bytes of an error body kept in HTTPError.
const errorBodyLimit = 4 << 10

type Options struct {
	// Endpoint is the base url of the backend api, metrics paths are appended to it.
	Endpoint string
	HTTP     *http.Client
	Signer   tokens.Signer
	Cache    *caches.Cache
	Dates    *dates.Service
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type Client struct {
	base    *url.URL
	http    *http.Client
	signer  tokens.Signer
	cache   *caches.Cache
	dates   *dates.Service
	metrics *metrics.Metrics
	log     *slog.Logger
}

func New(o Options) (*Client, error) {
	if o.Endpoint == "" {
		return nil, errors.New("klient: missing endpoint")
	}
	base, err := url.Parse(o.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("klient: invalid endpoint %q: %w", o.Endpoint, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("klient: unsupported endpoint scheme %q", base.Scheme)
	}
	c := &Client{
		base:    base,
		http:    o.HTTP,
		signer:  o.Signer,
		cache:   o.Cache,
		dates:   o.Dates,
		metrics: o.Metrics,
		log:     o.Logger,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.dates == nil {
		c.dates = dates.New(nil)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c, nil
}

// HTTPError is returned when the backend answers with a non 2xx status.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.Status, http.StatusText(e.Status), e.Body)
}

func (c *Client) url(segments ...string) string {
	escaped := make([]string, len(segments))
	for i := range segments {
		escaped[i] = url.PathEscape(segments[i])
	}
	return c.base.JoinPath(escaped...).String()
}

type call struct {
	// label used for metrics
	name    string
	method  string
	url     string
	headers map[string]string
	body    any
}

// do sends r and decodes the response into out. It reports false when the backend
// sent no data (empty body or json null).
func (c *Client) do(ctx context.Context, r call, out any) (bool, error) {
	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return false, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	for k, v := range r.headers {
		if v == "" {
			continue
		}
		req.Header.Set(k, v)
	}
	if c.signer != nil {
		if err := c.signer.Sign(ctx, req.Header); err != nil {
			return false, fmt.Errorf("signing %s request: %w", r.name, err)
		}
	}
	log := c.log.With(slog.String("request_id", id), slog.String("method", r.method), slog.String("url", r.url))
	log.Debug("sending metrics request")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.metrics.Request(r.name, 0, time.Since(start))
		log.Debug("metrics request failed", slog.String("err", err.Error()))
		return false, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	elapsed := time.Since(start)
	c.metrics.Request(r.name, res.StatusCode, elapsed)
	log.Debug("metrics request done",
		slog.Int("status", res.StatusCode),
		slog.Duration("elapsed", elapsed),
		slog.Int("bytes", len(data)),
	)
	if err != nil {
		return false, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		if len(data) > errorBodyLimit {
			data = data[:errorBodyLimit]
		}
		return false, &HTTPError{
			Method: r.method,
			URL:    r.url,
			Status: res.StatusCode,
			Body:   string(bytes.TrimSpace(data)),
		}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decoding %s response: %w", r.name, err)
	}
	return true, nil
}
