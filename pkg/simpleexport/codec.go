package simpleexport

import (
	"bytes"
	"strings"

	gojson "github.com/goccy/go-json"
)

// jsonCodec is the default JSONCodec. HTML characters are not escaped so the
// output matches what a browser's JSON.stringify produces.
type jsonCodec struct{}

// NewJSONCodec returns the default JSONCodec
func NewJSONCodec() JSONCodec {
	return jsonCodec{}
}

// Marshal encodes v, indenting with indent spaces when indent > 0
func (jsonCodec) Marshal(v any, indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := gojson.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Reindent validates data and rewrites it with indent spaces, keeping key order
func (jsonCodec) Reindent(data []byte, indent int) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if !gojson.Valid(trimmed) {
		var probe any
		if err := gojson.Unmarshal(trimmed, &probe); err != nil {
			return nil, &ParseError{Err: err}
		}
		return nil, &ParseError{Err: ErrInvalidJSON}
	}

	var buf bytes.Buffer
	if indent > 0 {
		if err := gojson.Indent(&buf, trimmed, "", strings.Repeat(" ", indent)); err != nil {
			return nil, &ParseError{Err: err}
		}
	} else if err := gojson.Compact(&buf, trimmed); err != nil {
		return nil, &ParseError{Err: err}
	}
	return buf.Bytes(), nil
}
