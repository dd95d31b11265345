package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/host/memory"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

func TestHost_Capability(t *testing.T) {
	h := memory.New()
	capability, ok := h.DownloadCapability()
	assert.True(t, ok)
	assert.NotNil(t, capability)

	restricted := memory.New(memory.WithoutDownloadAttribute())
	capability, ok = restricted.DownloadCapability()
	assert.False(t, ok)
	assert.Nil(t, capability)
}

func TestHost_ClickBlob(t *testing.T) {
	ctx := context.Background()
	h := memory.New(memory.WithOrigin("https://example.com/"))
	blob := simpleexport.NewBlobBuilder().BuildText("a,b", "csv", "")

	ref, err := h.CreateObjectURL(blob)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "blob:https://example.com/"))

	require.NoError(t, h.Click(ctx, simpleexport.DownloadLink{Href: ref, Download: "data.csv"}))

	d, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "data.csv", d.Filename)
	assert.Equal(t, "text/csv;charset=utf-8", d.ContentType)
	assert.Equal(t, []byte("a,b"), d.Data)
	assert.False(t, d.Remote)

	h.RevokeObjectURL(ref)
	err = h.Click(ctx, simpleexport.DownloadLink{Href: ref, Download: "again.csv"})
	assert.True(t, errors.Is(err, simpleexport.ErrUnknownReference))
	assert.Len(t, h.Downloads(), 1)
}

func TestHost_ClickRemote(t *testing.T) {
	ctx := context.Background()

	t.Run("without fetcher records the link", func(t *testing.T) {
		h := memory.New()
		require.NoError(t, h.Click(ctx, simpleexport.DownloadLink{Href: "https://example.com/a.png", Download: "a.png"}))
		d, _ := h.Last()
		assert.True(t, d.Remote)
		assert.Nil(t, d.Data)
	})

	t.Run("with fetcher records bytes", func(t *testing.T) {
		h := memory.New(memory.WithFetcher(remote.DataURLFetcher{}))
		require.NoError(t, h.Click(ctx, simpleexport.DownloadLink{Href: "data:image/png;base64,AAEC", Download: "px.png"}))
		d, _ := h.Last()
		assert.True(t, d.Remote)
		assert.Equal(t, []byte{0, 1, 2}, d.Data)
		assert.Equal(t, "image/png", d.ContentType)
	})

	t.Run("reset", func(t *testing.T) {
		h := memory.New()
		require.NoError(t, h.Click(ctx, simpleexport.DownloadLink{Href: "https://example.com/a.png"}))
		h.Reset()
		_, ok := h.Last()
		assert.False(t, ok)
	})
}
