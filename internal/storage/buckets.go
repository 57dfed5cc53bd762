package storage

import (
	"context"
	"net/http"

	"github.com/koustreak/StoRi/internal/rest"
	"github.com/koustreak/StoRi/internal/schema"
)

// updatableBucketFields is the subset of bucket attributes the service
// accepts on update.
var updatableBucketFields = map[string]bool{
	"public":             true,
	"file_size_limit":    true,
	"allowed_mime_types": true,
	"type":               true,
}

// ListBuckets returns every bucket accessible with the configured
// credentials.
func (c *Client) ListBuckets(ctx context.Context) ([]schema.Bucket, error) {
	d := c.newRequest().
		Path("bucket").
		Decode(rest.JSONList(schema.CheckBucketList))

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return schema.ParseBucketList(v.([]any))
}

// GetBucket returns the bucket with the given id.
func (c *Client) GetBucket(ctx context.Context, id string) (*schema.Bucket, error) {
	if err := requireIDs(map[string]string{"bucket id": id}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Path("bucket", id).
		Decode(rest.JSONObject(schema.CheckBucket))

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return schema.ParseBucket(asObject(v))
}

// CreateBucket creates a bucket from a raw attribute map. The map is
// validated before any request is built: id is required, name defaults to
// id, public defaults to false. The create response is not a full bucket
// record, so the generic decoded body is returned as-is.
func (c *Client) CreateBucket(ctx context.Context, attrs map[string]any) (map[string]any, error) {
	b, err := schema.ParseBucket(attrs)
	if err != nil {
		return nil, validationError(err)
	}

	body := map[string]any{
		"id":     b.ID,
		"name":   b.Name,
		"public": b.Public,
	}
	if b.SizeLimit != nil {
		body["file_size_limit"] = b.SizeLimit.Bytes()
	}
	if len(b.AllowedMimeTypes) > 0 {
		body["allowed_mime_types"] = b.AllowedMimeTypes
	}
	if b.Type != "" {
		body["type"] = b.Type
	}

	d := c.newRequest().
		Method(http.MethodPost).
		Path("bucket").
		Body(body).
		Decode(rest.JSON())

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return asObject(v), nil
}

// UpdateBucket updates the mutable subset of a bucket's attributes:
// public, file_size_limit, allowed_mime_types, and type. Other keys in
// attrs are rejected.
func (c *Client) UpdateBucket(ctx context.Context, id string, attrs map[string]any) (map[string]any, error) {
	if err := requireIDs(map[string]string{"bucket id": id}); err != nil {
		return nil, err
	}

	body := map[string]any{}
	var fields []schema.FieldError
	for k, v := range attrs {
		if !updatableBucketFields[k] {
			fields = append(fields, schema.FieldError{Field: k, Reason: "not updatable"})
			continue
		}
		if k == "file_size_limit" && v != nil {
			limit, err := schema.ParseSizeLimit(v)
			if err != nil {
				fields = append(fields, schema.FieldError{Field: k, Reason: err.Error()})
				continue
			}
			body[k] = limit.Bytes()
			continue
		}
		body[k] = v
	}
	if len(fields) > 0 {
		return nil, validationError(&schema.ValidationError{Entity: "bucket", Fields: fields})
	}

	d := c.newRequest().
		Method(http.MethodPut).
		Path("bucket", id).
		Body(body).
		Decode(rest.JSON())

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return asObject(v), nil
}

// EmptyBucket removes every object in the bucket but keeps the bucket.
func (c *Client) EmptyBucket(ctx context.Context, id string) (map[string]any, error) {
	if err := requireIDs(map[string]string{"bucket id": id}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Method(http.MethodPost).
		Path("bucket", id, "empty").
		Decode(rest.JSON())

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return asObject(v), nil
}

// DeleteBucket deletes an empty bucket. Deleting a non-empty bucket is a
// conflict — call EmptyBucket first.
func (c *Client) DeleteBucket(ctx context.Context, id string) (map[string]any, error) {
	if err := requireIDs(map[string]string{"bucket id": id}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Method(http.MethodDelete).
		Path("bucket", id).
		Decode(rest.JSON())

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return asObject(v), nil
}
