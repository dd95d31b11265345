package dom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><head><title>Droids</title></head>
<body>
  <div id="list"><ul><li>artoo</li><li>threepio</li></ul></div>
  <img id="logo" src="/static/logo.png" alt="logo">
  <img class="broken" alt="no source">
</body></html>`

func TestDocument_Query(t *testing.T) {
	doc, err := ParseString(page)
	require.NoError(t, err)

	el, ok := doc.Query("#logo")
	require.True(t, ok)
	assert.Equal(t, "img", el.Tag())
	src, ok := el.Attr("src")
	assert.True(t, ok)
	assert.Equal(t, "/static/logo.png", src)

	el, ok = doc.Query("img.broken")
	require.True(t, ok)
	_, ok = el.Attr("src")
	assert.False(t, ok)

	_, ok = doc.Query("table")
	assert.False(t, ok)

	_, ok = doc.Query("[[[")
	assert.False(t, ok)
}

func TestDocument_InnerHTML(t *testing.T) {
	doc, err := ParseString(page)
	require.NoError(t, err)

	el, ok := doc.Query("#list")
	require.True(t, ok)
	inner, err := el.InnerHTML()
	require.NoError(t, err)
	assert.Equal(t, "<ul><li>artoo</li><li>threepio</li></ul>", inner)

	markup, err := doc.DocumentHTML(context.Background())
	require.NoError(t, err)
	assert.Contains(t, markup, "<title>Droids</title>")
	assert.NotContains(t, markup, "<html>")
}
