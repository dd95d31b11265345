package simpleexport

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultOrigin is used in minted references when a host has no origin of its own
const DefaultOrigin = "null"

// ObjectURLs is the host-side table behind "blob:" references. Hosts that do
// not have a native object-URL facility embed it to implement ReferenceMinter.
type ObjectURLs struct {
	mu     sync.RWMutex
	origin string
	urls   map[string]*Blob
}

// NewObjectURLs creates a table minting "blob:<origin>/<uuid>" references
func NewObjectURLs(origin string) *ObjectURLs {
	if origin == "" {
		origin = DefaultOrigin
	}
	return &ObjectURLs{
		origin: strings.TrimRight(origin, "/"),
		urls:   make(map[string]*Blob),
	}
}

// CreateObjectURL mints a new reference for b
func (o *ObjectURLs) CreateObjectURL(b *Blob) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	ref := "blob:" + o.origin + "/" + id.String()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls[ref] = b
	return ref, nil
}

// RevokeObjectURL forgets ref
func (o *ObjectURLs) RevokeObjectURL(ref string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.urls, ref)
}

// Lookup dereferences a live reference
func (o *ObjectURLs) Lookup(ref string) (*Blob, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	b, ok := o.urls[ref]
	return b, ok
}

// Len returns the number of live references
func (o *ObjectURLs) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.urls)
}

// IsObjectURL reports whether href is a "blob:" reference
func IsObjectURL(href string) bool {
	return strings.HasPrefix(href, "blob:")
}
