package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/host"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

// Config options for the filesystem host
type Config struct {
	Dir     string         // Downloads directory
	Origin  string         // Origin used in minted references
	Fetcher remote.Fetcher // Optional fetcher for remote links
}

// Host saves files into a downloads directory. Name clashes are resolved the
// way browsers do it: "data.csv", "data (1).csv", "data (2).csv"...
type Host struct {
	*simpleexport.ObjectURLs

	mu      sync.Mutex
	dir     string
	fetcher remote.Fetcher
	saved   []string
}

// New creates a new filesystem host
func New(config Config) (*Host, error) {
	if config.Dir == "" {
		return nil, errors.New("downloads directory is required")
	}

	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory: %w", err)
	}

	return &Host{
		ObjectURLs: simpleexport.NewObjectURLs(config.Origin),
		dir:        config.Dir,
		fetcher:    config.Fetcher,
	}, nil
}

// DownloadCapability always reports the host itself
func (h *Host) DownloadCapability() (simpleexport.CanTriggerDownload, bool) {
	return h, true
}

// Click writes the file behind link into the downloads directory
func (h *Host) Click(ctx context.Context, link simpleexport.DownloadLink) error {
	res, err := host.Open(ctx, h.ObjectURLs, h.fetcher, link.Href)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	file, path, err := h.create(SanitizeFilename(link.Download))
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, res.Body); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}

	h.saved = append(h.saved, path)
	return nil
}

// create opens the first free variant of name for writing
func (h *Host) create(name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base, ext = name, ""
	}

	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}
		path := filepath.Join(h.dir, candidate)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create file: %w", err)
		}
	}
}

// Saved returns the paths written so far
func (h *Host) Saved() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.saved))
	copy(out, h.saved)
	return out
}

// Dir returns the downloads directory
func (h *Host) Dir() string {
	return h.dir
}

// SanitizeFilename reduces a suggested filename to a single safe path element
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, " .")
	if name == "" {
		return "download"
	}
	return name
}
