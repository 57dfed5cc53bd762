package rest

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/koustreak/StoRi/internal/errs"
)

// DefaultChunkSize is the read size used when the caller does not set one.
const DefaultChunkSize = 32 * 1024

// TransferState tracks a streaming transfer through its lifecycle.
type TransferState int

const (
	// StatePending means headers have arrived but no chunk was read yet.
	StatePending TransferState = iota

	// StateStreaming means at least one chunk has been consumed.
	StateStreaming

	// StateCompleted means the stream was exhausted or closed early.
	StateCompleted

	// StateFailed means the transport failed mid-stream.
	StateFailed
)

// Transfer is a lazy, single-pass, finite sequence of byte chunks over a
// response body. Chunks arrive strictly in request order. The iteration
// protocol follows the usual Next / Chunk / Err / Close shape:
//
//	for t.Next() {
//	    process(t.Chunk())
//	}
//	if err := t.Err(); err != nil { ... }
//
// Closing before exhaustion stops further consumption; no partial-chunk
// buffering is retained. A Transfer is not restartable — consuming the
// body again requires dispatching a new request. A Transfer is owned by a
// single consuming call; it is not safe for concurrent use.
type Transfer struct {
	resp  *http.Response
	buf   []byte
	chunk []byte
	state TransferState
	err   error
}

func newTransfer(resp *http.Response, chunkSize int) *Transfer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Transfer{
		resp:  resp,
		buf:   make([]byte, chunkSize),
		state: StatePending,
	}
}

// Status returns the HTTP status of the response being streamed.
func (t *Transfer) Status() int {
	return t.resp.StatusCode
}

// Header returns the response headers, available from the first chunk on.
func (t *Transfer) Header() http.Header {
	return t.resp.Header
}

// State returns the transfer's current lifecycle state.
func (t *Transfer) State() TransferState {
	return t.state
}

// Next advances to the next chunk. It returns false when the stream is
// exhausted, was closed early, or failed — Err distinguishes the cases.
func (t *Transfer) Next() bool {
	if t.state == StateCompleted || t.state == StateFailed {
		return false
	}

	n, err := t.resp.Body.Read(t.buf)
	if n > 0 {
		t.state = StateStreaming
		t.chunk = t.buf[:n]
		if err != nil && !errors.Is(err, io.EOF) {
			// Surface the short chunk now; the error ends the next call.
			t.err = errs.Wrap(errs.ErrKindTransport, "stream read failed", err)
		}
		return true
	}

	if err == nil || errors.Is(err, io.EOF) {
		t.finish(StateCompleted, t.err)
	} else {
		t.finish(StateFailed, errs.Wrap(errs.ErrKindTransport, "stream read failed", err))
	}
	return false
}

// Chunk returns the current chunk. It is only valid until the next call
// to Next.
func (t *Transfer) Chunk() []byte {
	return t.chunk
}

// Err returns the error that terminated the stream, if any.
func (t *Transfer) Err() error {
	return t.err
}

// Close stops consumption. Closing an exhausted transfer is a no-op.
func (t *Transfer) Close() error {
	if t.state == StateCompleted || t.state == StateFailed {
		return nil
	}
	t.finish(StateCompleted, t.err)
	return nil
}

func (t *Transfer) finish(state TransferState, err error) {
	t.state = state
	t.err = err
	t.chunk = nil
	t.resp.Body.Close()
}

// Collect buffers the remainder of the stream into a single byte slice.
// This is the default outcome when no hook redirects the transfer.
func (t *Transfer) Collect() ([]byte, error) {
	var out bytes.Buffer
	for t.Next() {
		out.Write(t.Chunk())
	}
	if t.err != nil {
		return nil, t.err
	}
	return out.Bytes(), nil
}

// WriteTo redirects the remaining chunks into w, e.g. a file sink, and
// returns the number of bytes written. The sink is exclusively owned by
// this call for its duration.
func (t *Transfer) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for t.Next() {
		n, err := w.Write(t.Chunk())
		written += int64(n)
		if err != nil {
			t.finish(StateFailed, errs.Wrap(errs.ErrKindTransport, "sink write failed", err))
			return written, t.err
		}
	}
	if t.err != nil {
		return written, t.err
	}
	return written, nil
}

// Hook is the per-transfer completion callback. It receives the live
// transfer after headers have arrived and may consume as much or as little
// of it as it wants: returning before exhaustion terminates consumption
// and the hook's result becomes the call's outcome.
type Hook func(t *Transfer) (any, error)

// Consume drives a transfer to its outcome. With a nil hook the entire
// stream is buffered and returned as one byte slice; otherwise the hook's
// result is propagated. The transfer is always closed on return.
func Consume(t *Transfer, hook Hook) (any, error) {
	defer t.Close()

	if hook == nil {
		return t.Collect()
	}
	return hook(t)
}
