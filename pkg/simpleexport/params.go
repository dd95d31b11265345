package simpleexport

// Params is the configuration accepted by every exporter. Each exporter
// reads only the fields relevant to its format; the rest are ignored.
type Params struct {
	Filename  string
	Mime      string
	Encoding  string
	Pretty    bool
	Indent    int
	Delimiter string
	Escape    string
	Key       string
}

// JSON indentation widths. Wider requests are clamped to MaxIndent, as
// JSON.stringify does.
const (
	DefaultIndent = 2
	MaxIndent     = 10
)

// Extend returns a copy of p where every zero field is taken from defaults.
// Values set by the caller always win.
func (p Params) Extend(defaults Params) Params {
	out := p
	if out.Filename == "" {
		out.Filename = defaults.Filename
	}
	if out.Mime == "" {
		out.Mime = defaults.Mime
	}
	if out.Encoding == "" {
		out.Encoding = defaults.Encoding
	}
	if !out.Pretty {
		out.Pretty = defaults.Pretty
	}
	if out.Indent == 0 {
		out.Indent = defaults.Indent
	}
	if out.Delimiter == "" {
		out.Delimiter = defaults.Delimiter
	}
	if out.Escape == "" {
		out.Escape = defaults.Escape
	}
	if out.Key == "" {
		out.Key = defaults.Key
	}
	return out
}

// indentWidth returns the JSON indentation requested by p, 0 for compact output
func (p Params) indentWidth() int {
	if p.Indent > MaxIndent {
		return MaxIndent
	}
	if p.Indent > 0 {
		return p.Indent
	}
	if p.Pretty {
		return DefaultIndent
	}
	return 0
}
