package simpleexport

// BlobBuilder wraps payloads into Blobs, resolving MIME type and charset
type BlobBuilder struct {
	shortcuts       MimeTable
	defaultMimeType string
	defaultEncoding string
}

// BuilderOption configures a BlobBuilder
type BuilderOption func(*BlobBuilder)

// WithMimeShortcuts adds shortcut tags on top of the built-in table
func WithMimeShortcuts(extra MimeTable) BuilderOption {
	return func(b *BlobBuilder) {
		b.shortcuts = b.shortcuts.Merge(extra)
	}
}

// WithDefaultMimeType sets the MIME type used when no hint is given
func WithDefaultMimeType(mime string) BuilderOption {
	return func(b *BlobBuilder) {
		if mime != "" {
			b.defaultMimeType = mime
		}
	}
}

// WithDefaultEncoding sets the charset used when no hint is given
func WithDefaultEncoding(encoding string) BuilderOption {
	return func(b *BlobBuilder) {
		if encoding != "" {
			b.defaultEncoding = encoding
		}
	}
}

// NewBlobBuilder creates a builder with the default shortcut table
func NewBlobBuilder(opts ...BuilderOption) *BlobBuilder {
	b := &BlobBuilder{
		shortcuts:       DefaultMimeShortcuts(),
		defaultMimeType: DefaultMimeType,
		defaultEncoding: DefaultEncoding,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// ResolveMime applies shortcut lookup, then the literal hint, then the default
func (b *BlobBuilder) ResolveMime(hint string) string {
	if hint == "" {
		return b.defaultMimeType
	}
	if mime, ok := b.shortcuts.Lookup(hint); ok {
		return mime
	}
	return hint
}

// ResolveEncoding returns hint, or the default charset when hint is empty
func (b *BlobBuilder) ResolveEncoding(hint string) string {
	if hint == "" {
		return b.defaultEncoding
	}
	return hint
}

// Build copies data into a new Blob. Empty hints select the defaults.
func (b *BlobBuilder) Build(data []byte, mimeHint, encodingHint string) *Blob {
	payload := make([]byte, len(data))
	copy(payload, data)
	return &Blob{
		data:     payload,
		mimeType: b.ResolveMime(mimeHint),
		charset:  b.ResolveEncoding(encodingHint),
	}
}

// BuildText is Build for string payloads
func (b *BlobBuilder) BuildText(text, mimeHint, encodingHint string) *Blob {
	return &Blob{
		data:     []byte(text),
		mimeType: b.ResolveMime(mimeHint),
		charset:  b.ResolveEncoding(encodingHint),
	}
}

// BuildFromDataURL decodes dataURL and wraps the bytes with the MIME type from
// its descriptor. The result has no charset.
func (b *BlobBuilder) BuildFromDataURL(dataURL string) (*Blob, error) {
	data, mime, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	if mime == "" {
		mime = ForceDownloadMimeType
	}
	return &Blob{data: data, mimeType: mime}, nil
}
