package coreapi

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type options struct {
	httpClient *http.Client
	logger     *logrus.Entry
	metrics    *Metrics
	now        func() time.Time
	sleep      func(time.Duration) <-chan time.Time
}

// Option customises the executor, token manager and services.
type Option func(*options)

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithClock replaces time.Now, token expiry is computed against it.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithTimer replaces time.After for settle delays.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(o *options) {
		o.sleep = after
	}
}

func newOptions(timeout time.Duration, opts ...Option) *options {
	o := &options{
		now:   time.Now,
		sleep: time.After,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = defaultHTTPClient(timeout)
	}
	if o.logger == nil {
		o.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return o
}

func defaultHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// Create a custom transport with TLS configuration
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}
