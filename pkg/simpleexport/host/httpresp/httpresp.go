// Package httpresp is a host that answers an HTTP request with the saved
// file as an attachment.
package httpresp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/host"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

// ErrAlreadyWritten indicates a second save on the same response
var ErrAlreadyWritten = errors.New("response already written")

// Host writes at most one file to a ResponseWriter
type Host struct {
	*simpleexport.ObjectURLs

	mu      sync.Mutex
	w       http.ResponseWriter
	fetcher remote.Fetcher
	written bool
}

// Option configures the response host
type Option func(*Host)

// WithFetcher lets the host proxy remote links
func WithFetcher(fetcher remote.Fetcher) Option {
	return func(h *Host) {
		h.fetcher = fetcher
	}
}

// WithObjectURLs shares a reference table between responses
func WithObjectURLs(urls *simpleexport.ObjectURLs) Option {
	return func(h *Host) {
		h.ObjectURLs = urls
	}
}

// New creates a host bound to w
func New(w http.ResponseWriter, opts ...Option) *Host {
	h := &Host{w: w}
	for _, opt := range opts {
		opt(h)
	}
	if h.ObjectURLs == nil {
		h.ObjectURLs = simpleexport.NewObjectURLs(simpleexport.DefaultOrigin)
	}
	return h
}

// DownloadCapability always reports the host itself
func (h *Host) DownloadCapability() (simpleexport.CanTriggerDownload, bool) {
	return h, true
}

// Click streams the file behind link as an attachment
func (h *Host) Click(ctx context.Context, link simpleexport.DownloadLink) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.written {
		return ErrAlreadyWritten
	}

	res, err := host.Open(ctx, h.ObjectURLs, h.fetcher, link.Href)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	h.written = true
	header := h.w.Header()
	header.Set("Content-Type", res.ContentType)
	header.Set("Content-Disposition", ContentDisposition(link.Download))
	if res.Size >= 0 {
		header.Set("Content-Length", strconv.FormatInt(res.Size, 10))
	}
	h.w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(h.w, res.Body); err != nil {
		return fmt.Errorf("failed to stream file: %w", err)
	}
	return nil
}

// Written reports whether a file was sent
func (h *Host) Written() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.written
}

// ContentDisposition formats an attachment header for filename
func ContentDisposition(filename string) string {
	filename = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "").Replace(filename)
	return fmt.Sprintf("attachment; filename=\"%s\"", filename)
}
