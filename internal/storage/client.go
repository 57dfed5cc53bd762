// Package storage exposes bucket and object management against a remote
// object-storage service as typed operations over its REST API.
//
// Every operation is a thin composition over the internal/rest pipeline:
// build a descriptor, dispatch it through the injected transport, and
// route the result through a decoder or the error mapper. Operations are
// synchronous, hold no shared mutable state between calls, and return
// failures as values — a *errs.Error, never a panic.
//
// Usage:
//
//	cfg := storage.DefaultConfig("https://project.example.com/storage/v1", apiKey)
//	client, err := storage.New(cfg)
//	if err != nil { ... }
//
//	buckets, err := client.ListBuckets(ctx)
package storage

import (
	"context"
	"net/http"

	"github.com/koustreak/StoRi/internal/errs"
	"github.com/koustreak/StoRi/internal/logger"
	"github.com/koustreak/StoRi/internal/rest"
)

// Client talks to one storage endpoint. It is safe for concurrent use:
// parallel calls share only the transport and the immutable config.
type Client struct {
	cfg       *Config
	transport rest.Transport
	log       *logger.Logger
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithTransport injects the HTTP transport used to dispatch requests.
// The transport owns timeouts and any retry policy.
func WithTransport(t rest.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithLogger injects the logger used for dispatch diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a Client for cfg. Without options it uses a plain
// *http.Client with the configured timeout and stays silent.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errs.New(errs.ErrKindValidation, "base URL is required")
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = &http.Client{Timeout: cfg.Timeout}
	}
	if c.log == nil {
		if cfg.LogLevel != "" {
			c.log = logger.New(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		} else {
			c.log = logger.Nop()
		}
	}
	return c, nil
}

// newRequest starts a descriptor against the configured endpoint with the
// standing auth headers attached.
func (c *Client) newRequest() *rest.Descriptor {
	d := rest.NewRequest(c.cfg.BaseURL)
	if c.cfg.APIKey != "" {
		d.Header("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return d
}

// do dispatches a descriptor and logs the outcome.
func (c *Client) do(ctx context.Context, d *rest.Descriptor) (any, error) {
	v, err := rest.Dispatch(ctx, c.transport, d)
	if err != nil {
		c.log.ErrorWith("dispatch failed", err, map[string]interface{}{"url": d.URL()})
		return nil, err
	}
	c.log.Debugf("dispatched %s", d.URL())
	return v, nil
}

// doStream dispatches a descriptor whose body will be streamed.
func (c *Client) doStream(ctx context.Context, d *rest.Descriptor) (*rest.Transfer, error) {
	t, err := rest.DispatchStream(ctx, c.transport, d, c.cfg.ChunkSize)
	if err != nil {
		c.log.ErrorWith("stream dispatch failed", err, map[string]interface{}{"url": d.URL()})
		return nil, err
	}
	c.log.Debugf("streaming %s", d.URL())
	return t, nil
}

// asObject narrows a decoded result to an attribute map.
func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// validationError wraps a schema failure into the pipeline error type,
// short-circuiting before any request is built.
func validationError(err error) error {
	return errs.Wrap(errs.ErrKindValidation, "invalid input", err)
}

// requireIDs rejects empty resource identifiers before request building.
func requireIDs(pairs map[string]string) error {
	for name, v := range pairs {
		if v == "" {
			return errs.New(errs.ErrKindValidation, name+" is required")
		}
	}
	return nil
}
