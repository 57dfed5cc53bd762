package schema

import "fmt"

// SortBy is the sort specification of a list request.
type SortBy struct {
	Column string // default "name"
	Order  string // "asc" (default) or "desc"
}

// SearchOptions controls offset-based object listing. It only shapes
// list-request bodies and is never persisted.
type SearchOptions struct {
	Limit  int    // default 100
	Offset int    // default 0
	Search string // optional free-text filter
	SortBy SortBy
}

// DefaultSearchOptions returns the service defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:  100,
		Offset: 0,
		SortBy: SortBy{Column: "name", Order: "asc"},
	}
}

// WithDefaults fills zero-valued fields with the service defaults.
func (o SearchOptions) WithDefaults() SearchOptions {
	if o.Limit == 0 {
		o.Limit = 100
	}
	if o.SortBy.Column == "" {
		o.SortBy.Column = "name"
	}
	if o.SortBy.Order == "" {
		o.SortBy.Order = "asc"
	}
	return o
}

// Body renders the list-request body for the given key prefix.
func (o SearchOptions) Body(prefix string) map[string]any {
	o = o.WithDefaults()
	body := map[string]any{
		"prefix": prefix,
		"limit":  o.Limit,
		"offset": o.Offset,
		"sort_by": map[string]any{
			"column": o.SortBy.Column,
			"order":  o.SortBy.Order,
		},
	}
	if o.Search != "" {
		body["search"] = o.Search
	}
	return body
}

// ListV2Options controls cursor-based object listing, the O(1) alternative
// to offset pagination.
type ListV2Options struct {
	Limit         int    // default 100
	Cursor        string // opaque continuation token from a previous page
	WithDelimiter bool   // group keys by delimiter (virtual folders)
}

// WithDefaults fills zero-valued fields with the service defaults.
func (o ListV2Options) WithDefaults() ListV2Options {
	if o.Limit == 0 {
		o.Limit = 100
	}
	return o
}

// Body renders the list-v2 request body for the given key prefix.
// The cursor is omitted, not sent empty, on the first page.
func (o ListV2Options) Body(prefix string) map[string]any {
	o = o.WithDefaults()
	body := map[string]any{
		"limit":          o.Limit,
		"with_delimiter": o.WithDelimiter,
	}
	if prefix != "" {
		body["prefix"] = prefix
	}
	if o.Cursor != "" {
		body["cursor"] = o.Cursor
	}
	return body
}

// resizeModes is the allowlist of transform resize modes.
var resizeModes = map[string]bool{
	"cover":   true,
	"contain": true,
	"fill":    true,
}

// TransformOptions are image-rendering parameters applied at download time.
type TransformOptions struct {
	Width   int
	Height  int
	Resize  string // cover (default), contain, fill
	Quality int    // 20–100, default 80
	Format  string // output format, default "origin"
}

// WithDefaults fills zero-valued fields with the service defaults.
func (o TransformOptions) WithDefaults() TransformOptions {
	if o.Resize == "" {
		o.Resize = "cover"
	}
	if o.Quality == 0 {
		o.Quality = 80
	}
	if o.Format == "" {
		o.Format = "origin"
	}
	return o
}

// Validate rejects out-of-range quality values and unknown resize modes.
func (o TransformOptions) Validate() error {
	o = o.WithDefaults()
	var fields []FieldError
	if !resizeModes[o.Resize] {
		fields = append(fields, FieldError{Field: "resize", Reason: fmt.Sprintf("unknown mode %q", o.Resize)})
	}
	if o.Quality < 20 || o.Quality > 100 {
		fields = append(fields, FieldError{Field: "quality", Reason: fmt.Sprintf("must be 20-100, got %d", o.Quality)})
	}
	if len(fields) > 0 {
		return &ValidationError{Entity: "transform", Fields: fields}
	}
	return nil
}

// Map renders the transform as a flat attribute map with absent fields
// omitted. Used both for query strings and for signed-URL request bodies.
func (o TransformOptions) Map() map[string]any {
	o = o.WithDefaults()
	m := map[string]any{
		"resize":  o.Resize,
		"quality": o.Quality,
		"format":  o.Format,
	}
	if o.Width > 0 {
		m["width"] = o.Width
	}
	if o.Height > 0 {
		m["height"] = o.Height
	}
	return m
}

// FileOptions drives upload request headers.
type FileOptions struct {
	CacheControl string // max-age seconds, default "3600"
	ContentType  string // default "text/plain;charset=UTF-8"
	Upsert       bool   // overwrite an existing object, default false
	Metadata     map[string]any    // user metadata, sent base64-encoded
	Headers      map[string]string // extra headers merged into the request
}

// DefaultFileOptions returns the service defaults.
func DefaultFileOptions() FileOptions {
	return FileOptions{
		CacheControl: "3600",
		ContentType:  "text/plain;charset=UTF-8",
	}
}

// WithDefaults fills zero-valued fields with the service defaults.
func (o FileOptions) WithDefaults() FileOptions {
	if o.CacheControl == "" {
		o.CacheControl = "3600"
	}
	if o.ContentType == "" {
		o.ContentType = "text/plain;charset=UTF-8"
	}
	return o
}
