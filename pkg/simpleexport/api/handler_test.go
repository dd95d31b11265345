package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/jwtauth"
	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/kvstore/memory"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

func newTestServer(t *testing.T, opts ...HandlerOption) (*httptest.Server, *ExportHandler) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Set(context.Background(), "user", map[string]any{"name": "luke"}))

	exporter, err := simpleexport.New(
		simpleexport.WithHost(simpleexport.NewNoopHost()),
		simpleexport.WithStore(store),
	)
	require.NoError(t, err)

	h := NewExportHandler(exporter, opts...)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, h
}

func do(t *testing.T, method, url, contentType, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestExportHandler_Text(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/text?filename=notes.txt", "", "hello")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain;charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="notes.txt"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "writing", resp.Header.Get(TransferStateHeader))
	assert.Equal(t, "hello", readBody(t, resp))

	resp = do(t, http.MethodPost, srv.URL+"/text", "", "x")
	assert.Equal(t, `attachment; filename="artoo_data"`, resp.Header.Get("Content-Disposition"))
	resp.Body.Close()
}

func TestExportHandler_JSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/json?indent=2", "application/json", `{"a":1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json;charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="data.json"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "{\n  \"a\": 1\n}", readBody(t, resp))

	resp = do(t, http.MethodPost, srv.URL+"/json?pretty=true", "application/json", `{"a":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, gojson.Unmarshal([]byte(readBody(t, resp)), &errResp))
	assert.Equal(t, "Bad Request", errResp.Error)
	assert.Contains(t, errResp.Message, "parse json")

	resp = do(t, http.MethodPost, srv.URL+"/json?indent=wide", "application/json", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodPost, srv.URL+"/json?indent=10", "application/json", `{"a":1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "{\n          \"a\": 1\n}", readBody(t, resp))

	resp = do(t, http.MethodPost, srv.URL+"/json?indent=50000000", "application/json", `{"a":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Disposition"))
	resp.Body.Close()
}

func TestExportHandler_DataURL(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/dataurl?filename=px.bin", "text/plain", "data:application/octet-stream;base64,AAEC\n")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "3", resp.Header.Get("Content-Length"))
	assert.Equal(t, "\x00\x01\x02", readBody(t, resp))

	resp = do(t, http.MethodPost, srv.URL+"/dataurl", "text/plain", "data:text/plain,plain")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "init", resp.Header.Get(TransferStateHeader))
	resp.Body.Close()
}

func TestExportHandler_CSV(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name        string
		query       string
		contentType string
		body        string
		want        string
	}{
		{"rows", "", "application/json", `[["a","b"],[1,null]]`, "a,b\n1,"},
		{"records", "", "application/json", `[{"name":"han","ship":"falcon"}]`, "name,ship\nhan,falcon"},
		{"text", "", "text/csv", "x;y", "x;y"},
		{"delimiter", "?delimiter=%3B", "application/json", `[["a;b","c"]]`, "\"a;b\";c"},
		{"empty", "", "application/json", `[]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/csv"+tt.query, tt.contentType, tt.body)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "text/csv;charset=utf-8", resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.want, readBody(t, resp))
		})
	}

	resp := do(t, http.MethodPost, srv.URL+"/csv", "application/json", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

const page = `<html><head><title>t</title></head><body>
<div id="main"><p>hi</p></div>
<img id="broken" alt="x">
<img id="inline" alt="dot" src="data:image/png;base64,AAEC">
</body></html>`

func TestExportHandler_HTML(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/html?selector=%23main", "text/html", page)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="fragment.html"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "<p>hi</p>", readBody(t, resp))

	resp = do(t, http.MethodPost, srv.URL+"/html?selector=table", "text/html", page)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodPost, srv.URL+"/page", "text/html", page)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="page.html"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, readBody(t, resp), "<title>t</title>")
}

func TestExportHandler_Image(t *testing.T) {
	srv, _ := newTestServer(t, WithFetcher(remote.NewMux().Handle(remote.DataURLFetcher{}, "data")))

	resp := do(t, http.MethodPost, srv.URL+"/image?selector=%23inline", "text/html", page)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="dot.png"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "\x00\x01\x02", readBody(t, resp))

	resp = do(t, http.MethodPost, srv.URL+"/image?selector=%23broken", "text/html", page)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "init", resp.Header.Get(TransferStateHeader))
	resp.Body.Close()
}

func TestExportHandler_Store(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/store?key=user", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="store.json"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "{\n  \"name\": \"luke\"\n}", readBody(t, resp))

	resp = do(t, http.MethodGet, srv.URL+"/store?key=nobody", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestExportHandler_Resource(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clip.mp4" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4"))
	}))
	defer upstream.Close()

	t.Run("without fetcher", func(t *testing.T) {
		srv, _ := newTestServer(t)
		resp := do(t, http.MethodGet, srv.URL+"/resource?url="+upstream.URL+"/clip.mp4", "", "")
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
		assert.Equal(t, "done", resp.Header.Get(TransferStateHeader))
		resp.Body.Close()
	})

	t.Run("private upstream forbidden by default", func(t *testing.T) {
		srv, _ := newTestServer(t, WithFetcher(remote.NewMux().Handle(remote.NewHTTP(remote.HTTPConfig{}), "http", "https")))
		resp := do(t, http.MethodGet, srv.URL+"/resource?url="+upstream.URL+"/clip.mp4", "", "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Content-Disposition"))
		resp.Body.Close()
	})

	srv, _ := newTestServer(t, WithFetcher(remote.NewMux().Handle(remote.NewHTTP(remote.HTTPConfig{AllowPrivate: true}), "http", "https")))

	t.Run("proxied", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/resource?url="+upstream.URL+"/clip.mp4", "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="media.mp4"`, resp.Header.Get("Content-Disposition"))
		assert.Equal(t, "mp4", readBody(t, resp))
	})

	t.Run("upstream missing", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/resource?url="+upstream.URL+"/gone.mp4", "", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("url required", func(t *testing.T) {
		resp := do(t, http.MethodGet, srv.URL+"/resource", "", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestExportHandler_BodyLimit(t *testing.T) {
	srv, _ := newTestServer(t, WithMaxBodyBytes(4))

	resp := do(t, http.MethodPost, srv.URL+"/text", "", "too large")
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	resp.Body.Close()
}

func TestExportHandler_TokenAuth(t *testing.T) {
	tokenAuth := jwtauth.New("HS256", []byte("secret"), nil)
	srv, _ := newTestServer(t, WithTokenAuth(tokenAuth))

	resp := do(t, http.MethodPost, srv.URL+"/text", "", "x")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	_, token, err := tokenAuth.Encode(map[string]interface{}{"sub": "tester"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/text", strings.NewReader("x"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
