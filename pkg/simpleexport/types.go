package simpleexport

import (
	"bytes"
	"io"
)

// Defaults applied when an exporter or the blob builder is given no hint
const (
	DefaultFilename       = "artoo_data"
	DefaultEncoding       = "utf-8"
	DefaultMimeType       = "text/plain"
	ForceDownloadMimeType = "application/octet-stream"
)

// Blob is an immutable byte payload tagged with a MIME type and a charset.
// Blobs built from data-URLs carry no charset.
type Blob struct {
	data     []byte
	mimeType string
	charset  string
}

// Size returns the payload length in bytes
func (b *Blob) Size() int {
	return len(b.data)
}

// Bytes returns a copy of the payload
func (b *Blob) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Reader returns a reader over the payload
func (b *Blob) Reader() io.Reader {
	return bytes.NewReader(b.data)
}

// MimeType returns the resolved MIME type without parameters
func (b *Blob) MimeType() string {
	return b.mimeType
}

// Charset returns the declared character encoding, empty for binary blobs
func (b *Blob) Charset() string {
	return b.charset
}

// Type returns the full type tag, e.g. "text/csv;charset=utf-8"
func (b *Blob) Type() string {
	if b.charset == "" {
		return b.mimeType
	}
	return b.mimeType + ";charset=" + b.charset
}

// TransferState is the lifecycle of a single download dispatch
type TransferState int32

const (
	// StateInit is entered on every dispatch and is terminal when the host cannot download
	StateInit TransferState = iota
	// StateWriting covers reference minting and the host click
	StateWriting
	// StateDone is asserted once the host click returns
	StateDone
)

// String returns the string representation of TransferState
func (s TransferState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// DownloadRequest is built by an exporter and consumed once by the Trigger.
// Exactly one of Blob and RemoteURL is set.
type DownloadRequest struct {
	Blob      *Blob
	RemoteURL string
	Filename  string

	// HostSave is set by the trigger when the request reached the host
	HostSave bool
}

// IsRemote reports whether the request points at a resource the host must fetch
func (r DownloadRequest) IsRemote() bool {
	return r.Blob == nil
}

// DownloadLink is the link-like element handed to the host: Href is an
// ephemeral reference or a remote URL, Download is the target filename.
type DownloadLink struct {
	Href     string
	Download string
}
