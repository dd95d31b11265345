package simpleexport

import "sync"

// Registry tracks the ephemeral references minted for blobs.
//
// References are queued for revocation when they are created but are only
// revoked by RevokeAll. Revoking eagerly would invalidate a reference the
// host may still be reading from.
type Registry struct {
	mu      sync.Mutex
	minter  ReferenceMinter
	refs    map[*Blob]string
	blobs   map[string]*Blob
	pending []string
}

// NewRegistry creates a registry minting references through minter
func NewRegistry(minter ReferenceMinter) *Registry {
	return &Registry{
		minter: minter,
		refs:   make(map[*Blob]string),
		blobs:  make(map[string]*Blob),
	}
}

// Register returns the live reference for b, minting one on first use
func (r *Registry) Register(b *Blob) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ref, ok := r.refs[b]; ok {
		return ref, nil
	}

	ref, err := r.minter.CreateObjectURL(b)
	if err != nil {
		return "", err
	}
	r.refs[b] = ref
	r.blobs[ref] = b
	r.pending = append(r.pending, ref)
	return ref, nil
}

// Resolve returns the blob behind a live reference
func (r *Registry) Resolve(ref string) (*Blob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.blobs[ref]
	return b, ok
}

// Pending returns the number of references awaiting revocation
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pending)
}

// RevokeAll revokes every live reference and empties the queue
func (r *Registry) RevokeAll() {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.refs = make(map[*Blob]string)
	r.blobs = make(map[string]*Blob)
	r.mu.Unlock()

	for _, ref := range pending {
		r.minter.RevokeObjectURL(ref)
	}
}
