// Package rest implements the request-construction / response-handling
// pipeline shared by every storage operation: endpoint path building, an
// immutable-after-dispatch request descriptor, pluggable response decoders
// and error parsers, and a streaming transfer for large downloads.
//
// The package carries no transport-level state. Dispatch goes through a
// Transport injected by the caller, and every failure comes back as a
// *errs.Error value — nothing here panics past the pipeline boundary.
package rest

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CleanPath normalizes a slash-separated path: runs of slashes collapse to
// one, then one leading and one trailing slash are stripped.
//
// CleanPath is idempotent — paths are normalized both when first supplied
// and again at URL render time, so a second pass must be a no-op.
func CleanPath(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	return p
}

// JoinPath builds a canonical request path from individual segments.
// Each segment is normalized, empty segments are dropped.
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = CleanPath(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// EncodeQuery renders an attribute map as a query string with
// deterministic (sorted) key order. Nil values and empty strings are
// omitted, never encoded as empty pairs. A nested map encodes as its own
// query string embedded as a single escaped value, so option records can
// carry sub-records (e.g. image transforms) in one query parameter.
func EncodeQuery(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := params[k]
		if v == nil {
			continue
		}

		var encoded string
		switch val := v.(type) {
		case string:
			if val == "" {
				continue
			}
			encoded = url.QueryEscape(val)
		case map[string]any:
			sub := EncodeQuery(val)
			if sub == "" {
				continue
			}
			encoded = url.QueryEscape(sub)
		case bool:
			encoded = fmt.Sprintf("%t", val)
		default:
			encoded = url.QueryEscape(fmt.Sprintf("%v", val))
		}

		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(encoded)
	}
	return b.String()
}
