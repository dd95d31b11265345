package simpleexport

import "context"

// ReferenceMinter mints and revokes host-local references to blobs
type ReferenceMinter interface {
	// CreateObjectURL returns a reference that addresses b on the host
	CreateObjectURL(b *Blob) (string, error)

	// RevokeObjectURL releases a reference; unknown references are ignored
	RevokeObjectURL(ref string)
}

// CanTriggerDownload is the host's native download affordance: a link with
// an href and a download attribute that saves a file when activated.
type CanTriggerDownload interface {
	ReferenceMinter

	// Click activates link. Hrefs are either references minted by this host
	// or remote URLs the host fetches itself.
	Click(ctx context.Context, link DownloadLink) error
}

// Host is an environment that may or may not be able to save files
type Host interface {
	// DownloadCapability returns the download affordance, or false when the
	// host has none or runs in a restricted context.
	DownloadCapability() (CanTriggerDownload, bool)
}

// JSONCodec serializes values and reformats JSON text
type JSONCodec interface {
	// Marshal encodes v; indent > 0 selects multi-line output with that many spaces
	Marshal(v any, indent int) ([]byte, error)

	// Reindent parses data and encodes it again with indent spaces
	Reindent(data []byte, indent int) ([]byte, error)
}

// CSVRenderer renders a table as delimited text.
// Empty delimiter and escape select "," and `"`.
type CSVRenderer interface {
	RenderCSV(table Table, delimiter, escape string) (string, error)
}

// Element is a single resolved DOM node
type Element interface {
	// Tag returns the lower-case element name
	Tag() string

	// Attr returns an attribute value and whether it is present
	Attr(name string) (string, bool)

	// InnerHTML returns the markup of the element's children
	InnerHTML() (string, error)
}

// Querier resolves a selector to a single element
type Querier interface {
	// Query returns the first match, or false when nothing matches
	Query(selector string) (Element, bool)
}

// PageSource exposes the markup of the current document
type PageSource interface {
	DocumentHTML(ctx context.Context) (string, error)
}

// KVStore is the key-value store dumped by SaveStore.
// An empty key returns the whole store.
type KVStore interface {
	Get(ctx context.Context, key string) (any, error)
}

// ScriptProvider yields the generated script text dumped by SaveInstructions
type ScriptProvider interface {
	Script(ctx context.Context) (string, error)
}

// ScriptFunc adapts a function to ScriptProvider
type ScriptFunc func(ctx context.Context) (string, error)

// Script calls f
func (f ScriptFunc) Script(ctx context.Context) (string, error) {
	return f(ctx)
}

// Logger receives errors that are reported instead of returned.
// *slog.Logger satisfies it.
type Logger interface {
	Error(msg string, args ...any)
}
