package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/StoRi/internal/errs"
	"github.com/koustreak/StoRi/internal/rest"
	"github.com/koustreak/StoRi/internal/schema"
)

func TestUpload(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {
		r.Post("/object/avatars/folder/photo.png", jsonResponse(200, `{"Key":"avatars/folder/photo.png"}`))
	})

	result, err := client.Upload(context.Background(), "avatars", "/folder//photo.png",
		strings.NewReader("png bytes"), schema.FileOptions{
			ContentType: "image/png",
			Upsert:      true,
			Metadata:    map[string]any{"camera": "x100"},
		})
	require.NoError(t, err)
	assert.Equal(t, "avatars/folder/photo.png", result["Key"])

	req := rec.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "png bytes", string(req.Body))
	assert.Equal(t, "max-age=3600", req.Header.Get("cache-control"))
	assert.Equal(t, "image/png", req.Header.Get("content-type"))
	assert.Equal(t, "true", req.Header.Get("x-upsert"))

	meta, err := base64.StdEncoding.DecodeString(req.Header.Get("x-metadata"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"camera":"x100"}`, string(meta))
}

func TestUpload_DefaultHeaders(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {
		r.Post("/object/docs/note.txt", jsonResponse(200, `{}`))
	})

	_, err := client.Upload(context.Background(), "docs", "note.txt",
		strings.NewReader("hello"), schema.FileOptions{})
	require.NoError(t, err)

	req := rec.last(t)
	assert.Equal(t, "max-age=3600", req.Header.Get("cache-control"))
	assert.Equal(t, "text/plain;charset=UTF-8", req.Header.Get("content-type"))
	assert.Empty(t, req.Header.Get("x-upsert"))
	assert.Empty(t, req.Header.Get("x-metadata"))
}

func TestUploadToSignedURL(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {
		r.Put("/object/upload/sign/docs/note.txt", jsonResponse(200, `{"Key":"docs/note.txt"}`))
	})

	_, err := client.UploadToSignedURL(context.Background(), "docs", "note.txt", "tok-123",
		strings.NewReader("hello"), schema.FileOptions{})
	require.NoError(t, err)

	req := rec.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "tok-123", req.Query.Get("token"))
}

func TestMoveAndCopy(t *testing.T) {
	tests := []struct {
		name string
		op   func(c *Client) (map[string]any, error)
		path string
	}{
		{
			name: "move",
			op: func(c *Client) (map[string]any, error) {
				return c.Move(context.Background(), "docs", "a.txt", "archive/a.txt", "")
			},
			path: "/object/move",
		},
		{
			name: "copy across buckets",
			op: func(c *Client) (map[string]any, error) {
				return c.Copy(context.Background(), "docs", "a.txt", "archive/a.txt", "backup")
			},
			path: "/object/copy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, rec := newTestClient(t, func(r chi.Router) {
				r.Post("/object/move", jsonResponse(200, `{"message":"Successfully moved"}`))
				r.Post("/object/copy", jsonResponse(200, `{"Key":"backup/archive/a.txt"}`))
			})

			_, err := tt.op(client)
			require.NoError(t, err)

			req := rec.last(t)
			assert.Equal(t, tt.path, req.Path)
			assert.Contains(t, string(req.Body), `"bucket_id":"docs"`)
			assert.Contains(t, string(req.Body), `"source_key":"a.txt"`)
			assert.Contains(t, string(req.Body), `"destination_key":"archive/a.txt"`)
			if tt.name == "move" {
				assert.NotContains(t, string(req.Body), "destination_bucket")
			} else {
				assert.Contains(t, string(req.Body), `"destination_bucket":"backup"`)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	client, _ := newTestClient(t, func(r chi.Router) {
		r.Get("/object/info/docs/note.txt", jsonResponse(200, `{
			"id":"file-1","name":"note.txt","bucket_id":"docs",
			"metadata":{"size":5}
		}`))
	})

	f, err := client.Info(context.Background(), "docs", "note.txt")
	require.NoError(t, err)
	assert.Equal(t, "file-1", f.ID)
	assert.Equal(t, "docs", f.BucketID)
	assert.Equal(t, float64(5), f.Metadata["size"])
}

func TestList_DefaultOptionsBody(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {
		r.Post("/object/list/avatars", jsonResponse(200, `[{"id":"f1","name":"avatars/a.png"}]`))
	})

	files, err := client.List(context.Background(), "avatars", "avatars/", schema.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "avatars/a.png", files[0].Name)

	assert.JSONEq(t,
		`{"prefix":"avatars/","limit":100,"offset":0,"sort_by":{"column":"name","order":"asc"}}`,
		string(rec.last(t).Body))
}

func TestListV2(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {
		r.Post("/object/list-v2/logs", jsonResponse(200, `{
			"hasNext": true,
			"nextCursor": "tok-next",
			"folders": [{"name":"2026"}],
			"objects": [{"id":"f1","name":"app.log"}]
		}`))
	})

	page, err := client.ListV2(context.Background(), "logs", "", schema.ListV2Options{Limit: 10})
	require.NoError(t, err)

	assert.True(t, page.HasNext)
	assert.Equal(t, "tok-next", page.NextCursor)
	assert.Equal(t, []string{"2026"}, page.Folders)
	require.Len(t, page.Objects, 1)
	assert.Equal(t, "app.log", page.Objects[0].Name)

	assert.JSONEq(t, `{"limit":10,"with_delimiter":false}`, string(rec.last(t).Body))
}

func TestRemove(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {
		r.Delete("/object/docs", jsonResponse(200, `[{"id":"f1","name":"old.txt"}]`))
	})

	removed, err := client.Remove(context.Background(), "docs", []string{"/old.txt"})
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "old.txt", removed[0].Name)

	req := rec.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.JSONEq(t, `{"prefixes":["old.txt"]}`, string(req.Body))
}

func TestRemove_NoKeys(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {})

	_, err := client.Remove(context.Background(), "docs", nil)
	assert.True(t, errs.IsValidation(err))
	assert.Zero(t, rec.count())
}

func TestDownload(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {
		r.Get("/object/docs/report.pdf", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("%PDF-1.7 content"))
		})
	})

	data, err := client.Download(context.Background(), "docs", "report.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 content", string(data))

	// Accept derives from the key's extension.
	assert.Equal(t, "application/pdf", rec.last(t).Header.Get("Accept"))
}

func TestDownload_WithTransform(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {
		r.Get("/render/image/authenticated/avatars/me.png", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("resized"))
		})
	})

	data, err := client.Download(context.Background(), "avatars", "me.png",
		&schema.TransformOptions{Width: 100, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, "resized", string(data))

	q := rec.last(t).Query
	assert.Equal(t, "100", q.Get("width"))
	assert.Equal(t, "100", q.Get("height"))
	assert.Equal(t, "cover", q.Get("resize"))
	assert.Equal(t, "80", q.Get("quality"))
	assert.Equal(t, "origin", q.Get("format"))
}

func TestDownload_InvalidTransformShortCircuits(t *testing.T) {
	client, rec := newTestClient(t, func(r chi.Router) {})

	_, err := client.Download(context.Background(), "avatars", "me.png",
		&schema.TransformOptions{Quality: 5})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Zero(t, rec.count())
}

func TestDownloadTo(t *testing.T) {
	payload := strings.Repeat("chunked payload ", 100)
	client, _ := newTestClient(t, func(r chi.Router) {
		r.Get("/object/docs/big.bin", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(payload))
		})
	})

	var sink bytes.Buffer
	n, err := client.DownloadTo(context.Background(), "docs", "big.bin", &sink, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, sink.String())
}

func TestDownloadWith_HookStopsEarly(t *testing.T) {
	client, _ := newTestClient(t, func(r chi.Router) {
		r.Get("/object/docs/big.bin", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(bytes.Repeat([]byte("x"), 200000))
		})
	})

	v, err := client.DownloadWith(context.Background(), "docs", "big.bin", nil,
		func(tr *rest.Transfer) (any, error) {
			if !tr.Next() {
				return nil, tr.Err()
			}
			// Only the first chunk is consumed; the hook's result wins.
			return tr.Header().Get("Content-Type"), nil
		})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", v)
}

func TestDownload_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(r chi.Router) {
		r.Get("/object/docs/gone.txt", jsonResponse(404,
			`{"code":"Not Found","message":"Object not found","statusCode":404}`))
	})

	_, err := client.Download(context.Background(), "docs", "gone.txt", nil)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestPublicURL(t *testing.T) {
	client, _ := newTestClient(t, func(r chi.Router) {})
	base := client.cfg.BaseURL

	t.Run("plain", func(t *testing.T) {
		u := client.PublicURL("avatars", "/folder//me.png", nil)
		assert.Equal(t, base+"/object/public/avatars/folder/me.png", u)
	})

	t.Run("with transform", func(t *testing.T) {
		u := client.PublicURL("avatars", "me.png", &schema.TransformOptions{Width: 50})
		assert.Contains(t, u, base+"/render/image/public/avatars/me.png?")
		assert.Contains(t, u, "width=50")
		assert.Contains(t, u, "resize=cover")
	})
}
