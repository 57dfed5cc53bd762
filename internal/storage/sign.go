package storage

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/koustreak/StoRi/internal/errs"
	"github.com/koustreak/StoRi/internal/rest"
	"github.com/koustreak/StoRi/internal/schema"
)

// SignedURL is a time-limited, token-bearing URL granting access to an
// object without further authentication.
type SignedURL struct {
	URL   string // absolute URL, resolved against the client endpoint
	Token string // the bare token extracted from the URL's query string
}

// CreateSignedURL asks the service for a download URL valid for expiresIn.
// A non-nil transform embeds image-rendering parameters in the grant.
func (c *Client) CreateSignedURL(ctx context.Context, bucketID, key string, expiresIn time.Duration, transform *schema.TransformOptions) (*SignedURL, error) {
	key = schema.CleanKey(key)
	if err := requireIDs(map[string]string{"bucket id": bucketID, "object key": key}); err != nil {
		return nil, err
	}
	if expiresIn <= 0 {
		return nil, errs.New(errs.ErrKindValidation, "expiresIn must be positive")
	}

	body := map[string]any{"expiresIn": int(expiresIn.Seconds())}
	if transform != nil {
		if err := transform.Validate(); err != nil {
			return nil, validationError(err)
		}
		body["transform"] = transform.Map()
	}

	d := c.newRequest().
		Method(http.MethodPost).
		Path("object", "sign", bucketID, key).
		Body(body).
		Decode(rest.JSONObject(nil))

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return c.signedFromResponse(asObject(v), "signedURL", "url")
}

// CreateSignedUploadURL asks the service for a pre-authorized upload URL
// for key. Pass the returned token to UploadToSignedURL.
func (c *Client) CreateSignedUploadURL(ctx context.Context, bucketID, key string, upsert bool) (*SignedURL, error) {
	key = schema.CleanKey(key)
	if err := requireIDs(map[string]string{"bucket id": bucketID, "object key": key}); err != nil {
		return nil, err
	}

	d := c.newRequest().
		Method(http.MethodPost).
		Path("object", "upload", "sign", bucketID, key).
		Decode(rest.JSONObject(nil))

	if upsert {
		d.Header("x-upsert", "true")
	}

	v, err := c.do(ctx, d)
	if err != nil {
		return nil, err
	}
	return c.signedFromResponse(asObject(v), "url", "signedURL")
}

// signedFromResponse pulls the relative signed URL out of a response map,
// resolves it against the client endpoint, and extracts its token.
func (c *Client) signedFromResponse(attrs map[string]any, keys ...string) (*SignedURL, error) {
	var rel string
	for _, k := range keys {
		if v, ok := attrs[k].(string); ok && v != "" {
			rel = v
			break
		}
	}
	if rel == "" {
		return nil, errs.New(errs.ErrKindDecode, "response carries no signed URL")
	}

	parsed, err := url.Parse(rel)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindDecode, "unparseable signed URL", err)
	}
	token := parsed.Query().Get("token")
	if token == "" {
		return nil, errs.New(errs.ErrKindDecode, "signed URL carries no token")
	}

	return &SignedURL{
		URL:   c.cfg.BaseURL + "/" + strings.TrimPrefix(rel, "/"),
		Token: token,
	}, nil
}
