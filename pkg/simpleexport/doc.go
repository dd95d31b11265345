// Package simpleexport saves in-memory data as files through a host's
// download mechanism.
//
// An Exporter turns text, JSON values, tables, HTML fragments, store dumps
// and remote resource references into a Blob (bytes + MIME type + charset)
// and hands it to a Trigger. The Trigger mints an ephemeral reference for
// the blob through the host and activates a download link pointing at it.
// Hosts are pluggable: an in-memory recorder, a downloads directory, an HTTP
// attachment response, and the browser itself under js/wasm are provided
// under host/.
//
// Error Policy
//
// Malformed data-URLs (*DecodeError) and invalid JSON text that had to be
// parsed (*ParseError) are returned and nothing is saved. An image target
// without a source (*ValidationError) is reported to the Logger and the call
// returns nil. A host without download capability makes every call a silent
// no-op; this is never reported.
package simpleexport
