package memory

import (
	"context"
	"io"
	"sync"

	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/host"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

// Download is one file the host was asked to save
type Download struct {
	Href        string
	Filename    string
	ContentType string
	Data        []byte // nil for remote links when no fetcher is configured
	Remote      bool
}

// Host is an in-memory implementation of simpleexport.Host that records
// every saved file instead of writing it anywhere
type Host struct {
	*simpleexport.ObjectURLs

	mu        sync.RWMutex
	downloads []Download
	capable   bool
	fetcher   remote.Fetcher
}

// Option configures the memory host
type Option func(*Host)

// WithoutDownloadAttribute simulates a host with no download affordance
func WithoutDownloadAttribute() Option {
	return func(h *Host) {
		h.capable = false
	}
}

// WithFetcher resolves remote links so their bytes are recorded
func WithFetcher(fetcher remote.Fetcher) Option {
	return func(h *Host) {
		h.fetcher = fetcher
	}
}

// WithOrigin sets the origin used in minted references
func WithOrigin(origin string) Option {
	return func(h *Host) {
		h.ObjectURLs = simpleexport.NewObjectURLs(origin)
	}
}

// New creates a new in-memory host
func New(opts ...Option) *Host {
	h := &Host{
		ObjectURLs: simpleexport.NewObjectURLs(simpleexport.DefaultOrigin),
		capable:    true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// DownloadCapability returns the host itself when downloads are supported
func (h *Host) DownloadCapability() (simpleexport.CanTriggerDownload, bool) {
	if !h.capable {
		return nil, false
	}
	return h, true
}

// Click records the file behind link
func (h *Host) Click(ctx context.Context, link simpleexport.DownloadLink) error {
	d := Download{
		Href:     link.Href,
		Filename: link.Download,
		Remote:   !simpleexport.IsObjectURL(link.Href),
	}

	if !d.Remote || h.fetcher != nil {
		res, err := host.Open(ctx, h.ObjectURLs, h.fetcher, link.Href)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		d.Data = data
		d.ContentType = res.ContentType
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.downloads = append(h.downloads, d)
	return nil
}

// Downloads returns every recorded download in click order
func (h *Host) Downloads() []Download {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Download, len(h.downloads))
	copy(out, h.downloads)
	return out
}

// Last returns the most recent download
func (h *Host) Last() (Download, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.downloads) == 0 {
		return Download{}, false
	}
	return h.downloads[len(h.downloads)-1], true
}

// Reset forgets recorded downloads
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.downloads = nil
}
