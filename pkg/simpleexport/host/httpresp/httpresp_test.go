package httpresp

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

func TestHost_ClickBlob(t *testing.T) {
	rec := httptest.NewRecorder()
	h := New(rec)

	blob := simpleexport.NewBlobBuilder().BuildText(`{"a":1}`, "json", "")
	ref, err := h.CreateObjectURL(blob)
	require.NoError(t, err)

	require.NoError(t, h.Click(context.Background(), simpleexport.DownloadLink{Href: ref, Download: "data.json"}))
	assert.True(t, h.Written())

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json;charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="data.json"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "7", rec.Header().Get("Content-Length"))
	assert.Equal(t, `{"a":1}`, rec.Body.String())

	err = h.Click(context.Background(), simpleexport.DownloadLink{Href: ref, Download: "again.json"})
	assert.True(t, errors.Is(err, ErrAlreadyWritten))
}

func TestHost_ClickRemote(t *testing.T) {
	t.Run("proxied through fetcher", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h := New(rec, WithFetcher(remote.DataURLFetcher{}))

		require.NoError(t, h.Click(context.Background(), simpleexport.DownloadLink{Href: "data:;base64,AAE=", Download: "media"}))
		assert.Equal(t, simpleexport.ForceDownloadMimeType, rec.Header().Get("Content-Type"))
		assert.Equal(t, []byte{0, 1}, rec.Body.Bytes())
	})

	t.Run("no fetcher", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h := New(rec)

		err := h.Click(context.Background(), simpleexport.DownloadLink{Href: "https://example.com/a.png", Download: "a.png"})
		assert.True(t, errors.Is(err, simpleexport.ErrRemoteUnavailable))
		assert.False(t, h.Written())
	})
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="a.csv"`, ContentDisposition("a.csv"))
	assert.Equal(t, `attachment; filename="say \"hi\".txt"`, ContentDisposition(`say "hi".txt`))
}
