package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// recorded is one request as the fake service saw it.
type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// recorder captures every request that reaches the fake service so tests
// can assert on the wire shape the pipeline produced.
type recorder struct {
	reqs []recorded
}

func (r *recorder) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		r.reqs = append(r.reqs, recorded{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Header: req.Header.Clone(),
			Body:   body,
		})
		next.ServeHTTP(w, req)
	})
}

func (r *recorder) last(t *testing.T) recorded {
	t.Helper()
	require.NotEmpty(t, r.reqs, "expected at least one request")
	return r.reqs[len(r.reqs)-1]
}

func (r *recorder) count() int {
	return len(r.reqs)
}

// newTestClient spins up a chi-routed fake storage service and a client
// pointed at it.
func newTestClient(t *testing.T, register func(r chi.Router)) (*Client, *recorder) {
	t.Helper()

	rec := &recorder{}
	router := chi.NewRouter()
	router.Use(rec.middleware)
	register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client, err := New(DefaultConfig(srv.URL, "test-key"))
	require.NoError(t, err)
	return client, rec
}

// jsonResponse writes a canned JSON body.
func jsonResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}
