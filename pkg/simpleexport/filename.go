package simpleexport

import (
	"net/url"
	"path"
	"strings"
)

// Extension returns the file extension of a resource URL without the dot.
// Query and fragment are ignored. For data-URLs the MIME subtype is used.
func Extension(resourceURL string) string {
	if strings.HasPrefix(resourceURL, "data:") {
		return dataURLExtension(resourceURL)
	}

	p := resourceURL
	if u, err := url.Parse(resourceURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	ext := path.Ext(path.Base(p))
	if ext == "" || ext == "." || ext == path.Base(p) {
		return ""
	}
	return ext[1:]
}

func dataURLExtension(dataURL string) string {
	descriptor := strings.TrimPrefix(dataURL, "data:")
	if i := strings.IndexAny(descriptor, ";,"); i >= 0 {
		descriptor = descriptor[:i]
	}
	slash := strings.IndexByte(descriptor, '/')
	if slash < 0 {
		return ""
	}
	subtype := descriptor[slash+1:]
	if i := strings.IndexByte(subtype, '+'); i >= 0 {
		subtype = subtype[:i]
	}
	return subtype
}

// withExtension appends "."+ext to base when ext is not empty
func withExtension(base, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + ext
}
