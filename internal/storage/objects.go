package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/koustreak/StoRi/internal/errs"
	"github.com/koustreak/StoRi/internal/rest"
	"github.com/koustreak/StoRi/internal/schema"
)

// ObjectPage is one page of a cursor-paginated listing.
type ObjectPage struct {
	Objects    []schema.FileObject
	Folders    []string // virtual folders, present when grouping by delimiter
	HasNext    bool
	NextCursor string // pass back via ListV2Options.Cursor for the next page
}

// Upload stores the contents of r as an object at key inside the bucket.
// opts drives the request headers; zero-valued fields take the service
// defaults (cache-control 3600, text/plain content type, no overwrite).
func (c *Client) Upload(ctx context.Context, bucketID, key string, r io.Reader, opts schema.FileOptions) (map[string]any, error) {
	key = schema.CleanKey(key)
	if err := requireIDs(map[string]string{"bucket id": bucketID, "object key": key}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Method(http.MethodPost).
		Path("object", bucketID, key).
		Stream(r).
		Decode(rest.JSON())

	if err := applyFileOptions(d, opts); err != nil {
		return nil, err
	}

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return asObject(v), nil
}

// UploadToSignedURL uploads through a pre-authorized upload URL created
// with CreateSignedUploadURL. The token authenticates the request instead
// of the client credentials.
func (c *Client) UploadToSignedURL(ctx context.Context, bucketID, key, token string, r io.Reader, opts schema.FileOptions) (map[string]any, error) {
	key = schema.CleanKey(key)
	if err := requireIDs(map[string]string{"bucket id": bucketID, "object key": key, "token": token}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Method(http.MethodPut).
		Path("object", "upload", "sign", bucketID, key).
		Query("token", token).
		Stream(r).
		Decode(rest.JSON())

	if err := applyFileOptions(d, opts); err != nil {
		return nil, err
	}

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return asObject(v), nil
}

// Move renames an object, optionally across buckets. destBucket may be
// empty to move within the source bucket.
func (c *Client) Move(ctx context.Context, bucketID, sourceKey, destKey, destBucket string) (map[string]any, error) {
	return c.relocate(ctx, "move", bucketID, sourceKey, destKey, destBucket)
}

// Copy duplicates an object, optionally across buckets. destBucket may be
// empty to copy within the source bucket.
func (c *Client) Copy(ctx context.Context, bucketID, sourceKey, destKey, destBucket string) (map[string]any, error) {
	return c.relocate(ctx, "copy", bucketID, sourceKey, destKey, destBucket)
}

func (c *Client) relocate(ctx context.Context, op, bucketID, sourceKey, destKey, destBucket string) (map[string]any, error) {
	sourceKey = schema.CleanKey(sourceKey)
	destKey = schema.CleanKey(destKey)
	if err := requireIDs(map[string]string{
		"bucket id":       bucketID,
		"source key":      sourceKey,
		"destination key": destKey,
	}); err != nil {
		return nil, err
	}

	body := map[string]any{
		"bucket_id":       bucketID,
		"source_key":      sourceKey,
		"destination_key": destKey,
	}
	if destBucket != "" {
		body["destination_bucket"] = destBucket
	}

	d := c.newRequest().
		Method(http.MethodPost).
		Path("object", op).
		Body(body).
		Decode(rest.JSON())

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return asObject(v), nil
}

// Info returns an object's metadata without downloading its content.
func (c *Client) Info(ctx context.Context, bucketID, key string) (*schema.FileObject, error) {
	key = schema.CleanKey(key)
	if err := requireIDs(map[string]string{"bucket id": bucketID, "object key": key}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Path("object", "info", bucketID, key).
		Decode(rest.JSONObject(schema.CheckFile))

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return schema.ParseFile(asObject(v))
}

// List returns the objects under prefix using offset pagination.
func (c *Client) List(ctx context.Context, bucketID, prefix string, opts schema.SearchOptions) ([]schema.FileObject, error) {
	if err := requireIDs(map[string]string{"bucket id": bucketID}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Method(http.MethodPost).
		Path("object", "list", bucketID).
		Body(opts.Body(prefix)).
		Decode(rest.JSONList(schema.CheckFileList))

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return schema.ParseFileList(v.([]any))
}

// ListV2 returns one page of objects under prefix using cursor pagination,
// the constant-time alternative to List for large buckets.
func (c *Client) ListV2(ctx context.Context, bucketID, prefix string, opts schema.ListV2Options) (*ObjectPage, error) {
	if err := requireIDs(map[string]string{"bucket id": bucketID}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Method(http.MethodPost).
		Path("object", "list-v2", bucketID).
		Body(opts.Body(prefix)).
		Decode(rest.JSONObject(nil))

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return parseObjectPage(asObject(v))
}

// Remove deletes the objects at the given keys. The service returns the
// records it removed.
func (c *Client) Remove(ctx context.Context, bucketID string, keys []string) ([]schema.FileObject, error) {
	if err := requireIDs(map[string]string{"bucket id": bucketID}); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, errs.New(errs.ErrKindValidation, "at least one object key is required")
	}

	cleaned := make([]string, len(keys))
	for i, k := range keys {
		cleaned[i] = schema.CleanKey(k)
	}

	d := c.newRequest().
		Method(http.MethodDelete).
		Path("object", bucketID).
		Body(map[string]any{"prefixes": cleaned}).
		Decode(rest.JSONList(schema.CheckFileList))

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return schema.ParseFileList(v.([]any))
}

// Download buffers an object's content into memory. A non-nil transform
// routes the request through the image-rendering endpoint.
func (c *Client) Download(ctx context.Context, bucketID, key string, transform *schema.TransformOptions) ([]byte, error) {
	v, err := c.DownloadWith(ctx, bucketID, key, transform, nil)
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// DownloadStream opens a lazy transfer over an object's content. The
// caller owns the transfer and must Close it; consuming it a second time
// requires a fresh call.
func (c *Client) DownloadStream(ctx context.Context, bucketID, key string, transform *schema.TransformOptions) (*rest.Transfer, error) {
	d, err := c.downloadRequest(bucketID, key, transform)
	if err != nil {
		return nil, err
	}
	return c.doStream(ctx, d)
}

// DownloadWith streams an object through a completion hook. A nil hook
// buffers the whole stream into one byte slice; otherwise the hook's
// result becomes the call's outcome — it may stop after any chunk or
// redirect the stream into a sink.
func (c *Client) DownloadWith(ctx context.Context, bucketID, key string, transform *schema.TransformOptions, hook rest.Hook) (any, error) {
	t, err := c.DownloadStream(ctx, bucketID, key, transform)
	if err != nil {
		return nil, err
	}
	return rest.Consume(t, hook)
}

// DownloadTo streams an object into w and returns the bytes written.
// w is exclusively owned by this call until it returns.
func (c *Client) DownloadTo(ctx context.Context, bucketID, key string, w io.Writer, transform *schema.TransformOptions) (int64, error) {
	v, err := c.DownloadWith(ctx, bucketID, key, transform, func(t *rest.Transfer) (any, error) {
		return t.WriteTo(w)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// PublicURL renders the client-side URL of an object in a public bucket.
// No request is made. The key is normalized again at render time.
func (c *Client) PublicURL(bucketID, key string, transform *schema.TransformOptions) string {
	key = schema.CleanKey(key)

	if transform != nil {
		u := c.cfg.BaseURL + "/" + rest.JoinPath("render", "image", "public", bucketID, key)
		if q := rest.EncodeQuery(transform.Map()); q != "" {
			u += "?" + q
		}
		return u
	}
	return c.cfg.BaseURL + "/" + rest.JoinPath("object", "public", bucketID, key)
}

// downloadRequest builds the descriptor for a plain or transformed
// download, with the accept header derived from the key's extension.
func (c *Client) downloadRequest(bucketID, key string, transform *schema.TransformOptions) (*rest.Descriptor, error) {
	key = schema.CleanKey(key)
	if err := requireIDs(map[string]string{"bucket id": bucketID, "object key": key}); err != nil {
		return nil, err
	}

	d := c.newRequest().Decode(rest.Raw())
	if mt := mime.TypeByExtension(path.Ext(key)); mt != "" {
		d.Header("Accept", mt)
	}

	if transform != nil {
		if err := transform.Validate(); err != nil {
			return nil, validationError(err)
		}
		d.Path("render", "image", "authenticated", bucketID, key).
			QueryMap(transform.Map())
	} else {
		d.Path("object", bucketID, key)
	}
	return d, nil
}

// parseObjectPage types the loosely-typed list-v2 response.
func parseObjectPage(attrs map[string]any) (*ObjectPage, error) {
	page := &ObjectPage{}

	if v, ok := attrs["hasNext"].(bool); ok {
		page.HasNext = v
	}
	if v, ok := attrs["nextCursor"].(string); ok {
		page.NextCursor = v
	}

	if v, ok := attrs["objects"].([]any); ok {
		files, err := schema.ParseFileList(v)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindDecode, "body does not match the expected entity", err)
		}
		page.Objects = files
	}

	if v, ok := attrs["folders"].([]any); ok {
		for _, f := range v {
			switch val := f.(type) {
			case string:
				page.Folders = append(page.Folders, val)
			case map[string]any:
				if name, ok := val["name"].(string); ok {
					page.Folders = append(page.Folders, name)
				}
			}
		}
	}
	return page, nil
}

// applyFileOptions turns FileOptions into upload request headers.
func applyFileOptions(d *rest.Descriptor, opts schema.FileOptions) error {
	opts = opts.WithDefaults()

	d.Headers(opts.Headers).
		Header("cache-control", "max-age="+opts.CacheControl).
		Header("content-type", opts.ContentType)

	if opts.Upsert {
		d.Header("x-upsert", "true")
	}
	if len(opts.Metadata) > 0 {
		raw, err := json.Marshal(opts.Metadata)
		if err != nil {
			return errs.Wrap(errs.ErrKindValidation, "failed to encode metadata", err)
		}
		d.Header("x-metadata", base64.StdEncoding.EncodeToString(raw))
	}
	return nil
}
