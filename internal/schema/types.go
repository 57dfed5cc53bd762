// Package schema normalizes loosely-typed attribute maps from the storage
// service into validated resource records.
//
// Parsing is pure: input maps are never mutated, records are built fresh on
// every call, and a failed parse returns a *ValidationError enumerating the
// offending fields. Callers must not build requests from a failed parse.
//
// Usage:
//
//	bucket, err := schema.ParseBucket(map[string]any{"id": "avatars"})
//	if err != nil { ... }
//	// bucket.Name == "avatars" (defaults to id)
package schema

import (
	"fmt"
	"strings"
	"time"
)

// SizeUnit is the unit of a bucket size limit.
type SizeUnit int

const (
	UnitByte SizeUnit = iota
	UnitMegabyte
	UnitGigabyte
	UnitTerabyte
)

func (u SizeUnit) String() string {
	switch u {
	case UnitMegabyte:
		return "MB"
	case UnitGigabyte:
		return "GB"
	case UnitTerabyte:
		return "TB"
	default:
		return "B"
	}
}

// SizeLimit is a bucket's maximum object size as a value/unit pair.
// Size is always positive once validated.
type SizeLimit struct {
	Size int64
	Unit SizeUnit
}

// Bytes returns the limit normalized to bytes, the canonical unit used
// on the wire.
func (s SizeLimit) Bytes() int64 {
	switch s.Unit {
	case UnitMegabyte:
		return s.Size * 1024 * 1024
	case UnitGigabyte:
		return s.Size * 1024 * 1024 * 1024
	case UnitTerabyte:
		return s.Size * 1024 * 1024 * 1024 * 1024
	default:
		return s.Size
	}
}

func (s SizeLimit) String() string {
	return fmt.Sprintf("%d%s", s.Size, s.Unit)
}

// Bucket is a named container for objects.
//
// ID is externally assigned and immutable after creation. Name defaults to
// ID when the service omits it. Timestamps are set by the service and are
// read-only to the client.
type Bucket struct {
	ID               string
	Name             string
	Owner            string
	Public           bool
	SizeLimit        *SizeLimit // nil when the bucket has no limit
	AllowedMimeTypes []string   // ordered, wildcard-capable patterns; nil when unrestricted
	Type             string     // bucket type tag, empty when the service omits it
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FileObject is a single stored item identified by a slash-separated key
// within a bucket.
//
// BucketID is a plain back-reference — resolving the full Bucket is a
// separate, explicit call.
type FileObject struct {
	ID             string
	Name           string // the object key, normalized (no leading/trailing/duplicate slashes)
	BucketID       string
	Owner          string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt time.Time
}

// FieldError describes a single rejected field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError enumerates every field a parse rejected.
type ValidationError struct {
	Entity string // "bucket" or "file"
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

// Has reports whether the error cites the given field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
