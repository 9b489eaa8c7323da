package transport

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/barbarian/madman-android/config"
)

const defaultTimeout = 10 * time.Second

// HTTPTransport is the default Transport, built on resty. A single client is
// shared so connections are pooled across manifest fetches and beacons.
type HTTPTransport struct {
	client *resty.Client
}

type Option func(*HTTPTransport)

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(t *HTTPTransport) {
		t.client.SetTimeout(timeout)
	}
}

// WithUserAgent sets the User-Agent sent on every request.
func WithUserAgent(agent string) Option {
	return func(t *HTTPTransport) {
		t.client.SetHeader("User-Agent", agent)
	}
}

func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{client: resty.New().SetTimeout(defaultTimeout)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewConfiguredTransport builds the default transport from the client
// configuration: request timeout and user agent applied.
func NewConfiguredTransport(cfg *config.Configuration) *HTTPTransport {
	return NewHTTPTransport(
		WithTimeout(time.Duration(cfg.RequestTimeout)*time.Millisecond),
		WithUserAgent(cfg.UserAgent),
	)
}

func (t *HTTPTransport) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := t.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}
	if resp.IsError() {
		return nil, errors.Errorf("fetching %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

func (t *HTTPTransport) Post(ctx context.Context, url string) error {
	resp, err := t.client.R().SetContext(ctx).Post(url)
	if err != nil {
		return errors.Wrapf(err, "posting beacon %s", url)
	}
	if resp.IsError() {
		return errors.Errorf("posting beacon %s: status %d", url, resp.StatusCode())
	}
	return nil
}
