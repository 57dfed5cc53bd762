package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/StoRi/internal/errs"
)

// transportFunc adapts a function to the Transport interface.
type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDispatch_Success(t *testing.T) {
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/bucket/avatars", req.URL.Path)
		return respond(200, `{"id":"avatars","name":"avatars"}`), nil
	})

	d := NewRequest("http://host").Path("bucket", "avatars").Decode(JSON())

	v, err := Dispatch(context.Background(), transport, d)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "avatars", "name": "avatars"}, v)
}

func TestDispatch_NonSuccessGoesThroughErrorParser(t *testing.T) {
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		return respond(404, `{"code":"Not Found","message":"Object not found","statusCode":404}`), nil
	})

	d := NewRequest("http://host").Path("object", "b", "k").Decode(Raw())

	_, err := Dispatch(context.Background(), transport, d)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Object not found", e.Message)
}

func TestDispatch_TransportFailure(t *testing.T) {
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	d := NewRequest("http://host").Path("bucket")

	_, err := Dispatch(context.Background(), transport, d)
	require.Error(t, err)
	assert.True(t, errs.IsTransport(err))
}

func TestDispatchStream_ErrorBeforeTransferExists(t *testing.T) {
	transport := transportFunc(func(req *http.Request) (*http.Response, error) {
		return respond(403, `{"message":"signature mismatch"}`), nil
	})

	d := NewRequest("http://host").Path("object", "b", "k")

	_, err := DispatchStream(context.Background(), transport, d, 0)
	require.Error(t, err)
	assert.True(t, errs.IsUnauthorized(err))
}
