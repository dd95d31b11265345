// Package remote fetches resources that hosts save by URL rather than from
// a local blob: http(s) links, s3://bucket/key objects and data-URLs.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Error types
var (
	// ErrNotFound indicates the remote resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrUnsupportedScheme indicates no fetcher is registered for the URL scheme
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// Resource is a fetched remote body. Callers must close Body.
type Resource struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64 // -1 when unknown
}

// Fetcher retrieves a resource by URL
type Fetcher interface {
	Fetch(ctx context.Context, resourceURL string) (*Resource, error)
}

// FetchError represents a failed fetch
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Mux dispatches to a fetcher by URL scheme
type Mux struct {
	fetchers map[string]Fetcher
}

// NewMux creates an empty scheme mux
func NewMux() *Mux {
	return &Mux{fetchers: make(map[string]Fetcher)}
}

// Handle registers f for the given schemes
func (m *Mux) Handle(f Fetcher, schemes ...string) *Mux {
	for _, scheme := range schemes {
		m.fetchers[strings.ToLower(scheme)] = f
	}
	return m
}

// Fetch routes resourceURL to the fetcher registered for its scheme
func (m *Mux) Fetch(ctx context.Context, resourceURL string) (*Resource, error) {
	scheme := Scheme(resourceURL)
	f, ok := m.fetchers[scheme]
	if !ok {
		return nil, &FetchError{URL: resourceURL, Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)}
	}
	return f.Fetch(ctx, resourceURL)
}

// Scheme returns the lower-case scheme of resourceURL, "" when it has none
func Scheme(resourceURL string) string {
	if strings.HasPrefix(resourceURL, "data:") {
		return "data"
	}
	u, err := url.Parse(resourceURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
