package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/koustreak/StoRi/internal/errs"
)

// Descriptor is an incrementally-built description of one outbound call:
// method, target URL, headers, query, body, and the decoder / error-parser
// strategies that will handle the response.
//
// A Descriptor is pure configuration — it holds no connection or socket
// state. Once Build has produced the *http.Request the descriptor is
// frozen: later setter calls are ignored. Descriptors are never shared
// across calls.
type Descriptor struct {
	method  string
	baseURL string
	path    string
	header  http.Header
	query   map[string]any
	body    any
	stream  io.Reader
	decoder Decoder
	parser  ErrorParser
	frozen  bool
}

// NewRequest starts a descriptor against baseURL with the pipeline
// defaults: GET, raw decoder, service error parser.
func NewRequest(baseURL string) *Descriptor {
	return &Descriptor{
		method:  http.MethodGet,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		header:  http.Header{},
		query:   map[string]any{},
		decoder: Raw(),
		parser:  ServiceError(),
	}
}

// Method sets the HTTP method.
func (d *Descriptor) Method(m string) *Descriptor {
	if !d.frozen {
		d.method = m
	}
	return d
}

// Path sets the endpoint path from segments, each normalized and joined.
func (d *Descriptor) Path(segments ...string) *Descriptor {
	if !d.frozen {
		d.path = JoinPath(segments...)
	}
	return d
}

// Header merges one header into the descriptor.
func (d *Descriptor) Header(key, value string) *Descriptor {
	if !d.frozen {
		d.header.Set(key, value)
	}
	return d
}

// Headers merges a header map into the descriptor. Later calls merge with,
// never replace, what is already set.
func (d *Descriptor) Headers(h map[string]string) *Descriptor {
	if d.frozen {
		return d
	}
	for k, v := range h {
		d.header.Set(k, v)
	}
	return d
}

// Query sets a single query parameter. Nil values and empty strings are
// dropped at render time.
func (d *Descriptor) Query(key string, value any) *Descriptor {
	if !d.frozen {
		d.query[key] = value
	}
	return d
}

// QueryMap merges a parameter map into the query.
func (d *Descriptor) QueryMap(params map[string]any) *Descriptor {
	if d.frozen {
		return d
	}
	for k, v := range params {
		d.query[k] = v
	}
	return d
}

// Body sets an opaque body value, encoded at build time by the encoder the
// content type selects (JSON when none is set).
func (d *Descriptor) Body(v any) *Descriptor {
	if !d.frozen {
		d.body = v
	}
	return d
}

// Stream sets a raw reader as the request body, bypassing encoding.
// Used for uploads whose content is streamed from the caller.
func (d *Descriptor) Stream(r io.Reader) *Descriptor {
	if !d.frozen {
		d.stream = r
	}
	return d
}

// Decode selects the response decoder strategy.
func (d *Descriptor) Decode(dec Decoder) *Descriptor {
	if !d.frozen {
		d.decoder = dec
	}
	return d
}

// OnError selects the error-parser strategy for non-2xx responses.
func (d *Descriptor) OnError(p ErrorParser) *Descriptor {
	if !d.frozen {
		d.parser = p
	}
	return d
}

// URL renders the full target URL, normalizing the path again and
// appending the encoded query. Omitted parameters never appear.
func (d *Descriptor) URL() string {
	u := d.baseURL + "/" + CleanPath(d.path)
	if q := EncodeQuery(d.query); q != "" {
		u += "?" + q
	}
	return u
}

// Build encodes the body, assembles the *http.Request, and freezes the
// descriptor. The descriptor's contract ends at "ready to send".
func (d *Descriptor) Build(ctx context.Context) (*http.Request, error) {
	body, err := d.encodeBody()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, d.method, d.URL(), body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "failed to build request", err)
	}
	for k, vals := range d.header {
		for _, v := range vals {
			req.Header.Set(k, v)
		}
	}

	d.frozen = true
	return req, nil
}

// encodeBody picks the body encoder from the content type. Raw streams and
// byte payloads pass through untouched; everything else goes through the
// JSON encoder, which also stamps the content type when unset.
func (d *Descriptor) encodeBody() (io.Reader, error) {
	if d.stream != nil {
		return d.stream, nil
	}
	if d.body == nil {
		return nil, nil
	}

	switch v := d.body.(type) {
	case []byte:
		return bytes.NewReader(v), nil
	case string:
		return strings.NewReader(v), nil
	case io.Reader:
		return v, nil
	}

	ct := d.header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "json") {
		return nil, errs.New(errs.ErrKindValidation, "no body encoder for content type "+ct)
	}

	raw, err := json.Marshal(d.body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindValidation, "failed to encode request body", err)
	}
	if ct == "" {
		d.header.Set("Content-Type", "application/json")
	}
	return bytes.NewReader(raw), nil
}
