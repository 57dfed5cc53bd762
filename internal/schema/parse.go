package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the timestamp formats the service has been observed to
// emit. Tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
}

// ParseBucket normalizes a raw attribute map into a Bucket.
//
// Casting rules: id is required and non-empty; name defaults to id; public
// defaults to false; file_size_limit accepts an integer byte count or a
// string with an MB/GB/TB suffix (unknown suffixes fall back to bytes).
// A failed parse returns a *ValidationError citing every bad field.
func ParseBucket(attrs map[string]any) (*Bucket, error) {
	c := newCaster("bucket", attrs)

	b := &Bucket{
		ID:        c.str("id", required),
		Name:      c.str("name", optional),
		Owner:     c.str("owner", optional),
		Public:    c.boolean("public", false),
		Type:      c.str("type", optional),
		CreatedAt: c.timestamp("created_at"),
		UpdatedAt: c.timestamp("updated_at"),
	}

	// Display name falls back to the identifier.
	if b.Name == "" {
		b.Name = b.ID
	}

	if v, ok := attrs["file_size_limit"]; ok && v != nil {
		limit, err := ParseSizeLimit(v)
		if err != nil {
			c.fail("file_size_limit", err.Error())
		} else {
			b.SizeLimit = limit
		}
	}

	if v, ok := attrs["allowed_mime_types"]; ok && v != nil {
		b.AllowedMimeTypes = c.strSlice("allowed_mime_types", v)
	}

	if err := c.result(); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseBucketList validates a list element-wise. A single failing element
// aborts the whole batch and surfaces that element's failure.
func ParseBucketList(items []any) ([]Bucket, error) {
	buckets := make([]Bucket, 0, len(items))
	for i, item := range items {
		attrs, ok := item.(map[string]any)
		if !ok {
			return nil, &ValidationError{
				Entity: "bucket",
				Fields: []FieldError{{Field: fmt.Sprintf("[%d]", i), Reason: "not an object"}},
			}
		}
		b, err := ParseBucket(attrs)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, *b)
	}
	return buckets, nil
}

// ParseFile normalizes a raw attribute map into a FileObject.
// Only id is required; the object key in name is normalized to have no
// leading, trailing, or duplicate slashes.
func ParseFile(attrs map[string]any) (*FileObject, error) {
	c := newCaster("file", attrs)

	f := &FileObject{
		ID:             c.str("id", required),
		Name:           CleanKey(c.str("name", optional)),
		BucketID:       c.str("bucket_id", optional),
		Owner:          c.str("owner", optional),
		CreatedAt:      c.timestamp("created_at"),
		UpdatedAt:      c.timestamp("updated_at"),
		LastAccessedAt: c.timestamp("last_accessed_at"),
	}

	if v, ok := attrs["metadata"]; ok && v != nil {
		meta, ok := v.(map[string]any)
		if !ok {
			c.fail("metadata", "not an object")
		} else {
			f.Metadata = meta
		}
	}

	if err := c.result(); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseFileList validates a list element-wise, aborting on the first
// failing element.
func ParseFileList(items []any) ([]FileObject, error) {
	files := make([]FileObject, 0, len(items))
	for i, item := range items {
		attrs, ok := item.(map[string]any)
		if !ok {
			return nil, &ValidationError{
				Entity: "file",
				Fields: []FieldError{{Field: fmt.Sprintf("[%d]", i), Reason: "not an object"}},
			}
		}
		f, err := ParseFile(attrs)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, nil
}

// CheckBucket reports whether attrs parses as a Bucket. Used as a decoder
// schema check where the caller wants the generic data, not the record.
func CheckBucket(attrs map[string]any) error {
	_, err := ParseBucket(attrs)
	return err
}

// CheckBucketList is the list form of CheckBucket.
func CheckBucketList(items []any) error {
	_, err := ParseBucketList(items)
	return err
}

// CheckFile reports whether attrs parses as a FileObject.
func CheckFile(attrs map[string]any) error {
	_, err := ParseFile(attrs)
	return err
}

// CheckFileList is the list form of CheckFile.
func CheckFileList(items []any) error {
	_, err := ParseFileList(items)
	return err
}

// ParseSizeLimit casts a size-limit value from any of the wire encodings:
// a bare integer (bytes), or a string with an optional MB/GB/TB suffix.
// Unknown suffixes fall back to bytes. The size must be positive.
func ParseSizeLimit(v any) (*SizeLimit, error) {
	var limit SizeLimit

	switch val := v.(type) {
	case int:
		limit = SizeLimit{Size: int64(val), Unit: UnitByte}
	case int64:
		limit = SizeLimit{Size: val, Unit: UnitByte}
	case float64:
		limit = SizeLimit{Size: int64(val), Unit: UnitByte}
	case string:
		parsed, err := parseSizeString(val)
		if err != nil {
			return nil, err
		}
		limit = parsed
	default:
		return nil, fmt.Errorf("unsupported size limit type %T", v)
	}

	if limit.Size <= 0 {
		return nil, fmt.Errorf("size limit must be positive, got %d", limit.Size)
	}
	return &limit, nil
}

func parseSizeString(s string) (SizeLimit, error) {
	s = strings.TrimSpace(s)

	digits := len(s)
	for i, r := range s {
		if r < '0' || r > '9' {
			digits = i
			break
		}
	}
	if digits == 0 {
		return SizeLimit{}, fmt.Errorf("no numeric size in %q", s)
	}

	size, err := strconv.ParseInt(s[:digits], 10, 64)
	if err != nil {
		return SizeLimit{}, fmt.Errorf("invalid size in %q", s)
	}

	switch strings.ToUpper(strings.TrimSpace(s[digits:])) {
	case "MB":
		return SizeLimit{Size: size, Unit: UnitMegabyte}, nil
	case "GB":
		return SizeLimit{Size: size, Unit: UnitGigabyte}, nil
	case "TB":
		return SizeLimit{Size: size, Unit: UnitTerabyte}, nil
	default:
		// Unknown suffix: keep the numeric prefix, assume bytes.
		return SizeLimit{Size: size, Unit: UnitByte}, nil
	}
}

// CleanKey normalizes a slash-separated object key: one leading and one
// trailing slash are stripped and runs of slashes collapse to one.
// CleanKey is idempotent.
func CleanKey(key string) string {
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	key = strings.TrimPrefix(key, "/")
	key = strings.TrimSuffix(key, "/")
	return key
}

// --- field cast pipeline ---

const (
	required = true
	optional = false
)

// caster runs the ordered field-cast pipeline over one attribute map,
// accumulating field errors instead of stopping at the first.
type caster struct {
	entity string
	attrs  map[string]any
	errs   []FieldError
}

func newCaster(entity string, attrs map[string]any) *caster {
	return &caster{entity: entity, attrs: attrs}
}

func (c *caster) fail(field, reason string) {
	c.errs = append(c.errs, FieldError{Field: field, Reason: reason})
}

func (c *caster) str(field string, req bool) string {
	v, ok := c.attrs[field]
	if !ok || v == nil {
		if req {
			c.fail(field, "required")
		}
		return ""
	}
	s, ok := v.(string)
	if !ok {
		c.fail(field, fmt.Sprintf("expected string, got %T", v))
		return ""
	}
	if req && s == "" {
		c.fail(field, "required")
	}
	return s
}

func (c *caster) boolean(field string, def bool) bool {
	v, ok := c.attrs[field]
	if !ok || v == nil {
		return def
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			c.fail(field, fmt.Sprintf("expected boolean, got %q", val))
			return def
		}
		return b
	default:
		c.fail(field, fmt.Sprintf("expected boolean, got %T", v))
		return def
	}
}

func (c *caster) timestamp(field string) time.Time {
	v, ok := c.attrs[field]
	if !ok || v == nil {
		return time.Time{}
	}
	s, ok := v.(string)
	if !ok {
		c.fail(field, fmt.Sprintf("expected timestamp string, got %T", v))
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	c.fail(field, fmt.Sprintf("unrecognized timestamp %q", s))
	return time.Time{}
}

func (c *caster) strSlice(field string, v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				c.fail(field, fmt.Sprintf("element %d: expected string, got %T", i, item))
				return nil
			}
			out[i] = s
		}
		return out
	default:
		c.fail(field, fmt.Sprintf("expected string list, got %T", v))
		return nil
	}
}

func (c *caster) result() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &ValidationError{Entity: c.entity, Fields: c.errs}
}
