package simpleexport

import (
	"encoding/base64"
	"strings"
)

const (
	dataScheme   = "data:"
	base64Marker = ";base64"
)

// DecodeDataURL decodes "[data:]<mime>[;params];base64,<payload>" into its
// raw bytes and MIME type.
//
// Every decoded code unit becomes exactly one byte. Text payloads are never
// reinterpreted as UTF-8, so the result is the octet sequence the payload
// encodes and nothing else.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 {
		return nil, "", &DecodeError{Input: dataURL, Err: ErrMalformedDataURL}
	}

	descriptor := dataURL[:comma]
	if !strings.HasSuffix(strings.ToLower(descriptor), base64Marker) {
		return nil, "", &DecodeError{Input: dataURL, Err: ErrMalformedDataURL}
	}

	mime := descriptor
	if len(mime) >= len(dataScheme) && strings.EqualFold(mime[:len(dataScheme)], dataScheme) {
		mime = mime[len(dataScheme):]
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(mime)

	binary, err := decodeBase64(dataURL[comma+1:])
	if err != nil {
		return nil, "", &DecodeError{Input: dataURL, Err: ErrInvalidBase64}
	}

	return binary, mime, nil
}

// decodeBase64 follows atob: ASCII whitespace is skipped, and padding is
// optional but only accepted when it completes a 4-character group.
func decodeBase64(payload string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, payload)

	if len(clean)%4 == 0 {
		clean = strings.TrimSuffix(clean, "=")
		clean = strings.TrimSuffix(clean, "=")
	}
	if len(clean)%4 == 1 {
		return nil, ErrInvalidBase64
	}
	return base64.RawStdEncoding.DecodeString(clean)
}
