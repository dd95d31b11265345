package simpleexport

import "strings"

// MimeTable maps short format tags to canonical MIME types
type MimeTable map[string]string

// DefaultMimeShortcuts returns a fresh copy of the built-in shortcut table
func DefaultMimeShortcuts() MimeTable {
	return MimeTable{
		"csv":  "text/csv",
		"json": "application/json",
		"txt":  "text/plain",
		"html": "text/html",
	}
}

// Lookup returns the MIME type registered for tag
func (t MimeTable) Lookup(tag string) (string, bool) {
	mime, ok := t[strings.ToLower(tag)]
	return mime, ok
}

// Merge returns a new table holding t overlaid with other
func (t MimeTable) Merge(other MimeTable) MimeTable {
	out := make(MimeTable, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[strings.ToLower(k)] = v
	}
	return out
}
