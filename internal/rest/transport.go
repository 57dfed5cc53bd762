package rest

import (
	"context"
	"io"
	"net/http"

	"github.com/koustreak/StoRi/internal/errs"
)

// Transport executes a ready-to-send request. It owns connection
// management, timeouts, and any retry policy — the pipeline treats a
// transport failure as an immediate, non-retried error.
//
// *http.Client satisfies Transport; tests inject their own.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatch builds the request from d, executes it through t, and routes
// the raw result: 2xx bodies go through the descriptor's decoder, anything
// else through its error parser. The whole call is synchronous and holds
// no state beyond the descriptor.
func Dispatch(ctx context.Context, t Transport, d *Descriptor) (any, error) {
	req, err := d.Build(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, d.parser(resp.StatusCode, body, d.method, d.URL())
	}
	return d.decoder(body)
}

// DispatchStream builds and executes d, returning a lazy Transfer over the
// response body instead of buffering it. Non-2xx responses are mapped
// through the descriptor's error parser before any Transfer exists.
//
// The caller owns the Transfer and must Close it. A second consumption
// attempt re-issues nothing — callers wanting the body again must dispatch
// a fresh descriptor.
func DispatchStream(ctx context.Context, t Transport, d *Descriptor, chunkSize int) (*Transfer, error) {
	req, err := d.Build(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindTransport, "request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, d.parser(resp.StatusCode, body, d.method, d.URL())
	}

	return newTransfer(resp, chunkSize), nil
}
