package simpleexport

import (
	"context"
	"fmt"
	"log/slog"
)

// Exporter normalizes data of various shapes and hands it to a Trigger
type Exporter struct {
	builder *BlobBuilder
	trigger *Trigger
	json    JSONCodec
	csv     CSVRenderer
	querier Querier
	page    PageSource
	store   KVStore
	scripts ScriptProvider
	logger  Logger
}

// Option represents a functional option for configuring the exporter
type Option func(*Exporter)

// WithBlobBuilder sets the builder used to wrap payloads
func WithBlobBuilder(builder *BlobBuilder) Option {
	return func(e *Exporter) {
		e.builder = builder
	}
}

// WithTrigger sets the download trigger
func WithTrigger(trigger *Trigger) Option {
	return func(e *Exporter) {
		e.trigger = trigger
	}
}

// WithHost builds a trigger from the host's download capability
func WithHost(host Host, opts ...TriggerOption) Option {
	return func(e *Exporter) {
		e.trigger = NewTrigger(Probe(host), opts...)
	}
}

// WithJSONCodec replaces the default JSON codec
func WithJSONCodec(codec JSONCodec) Option {
	return func(e *Exporter) {
		e.json = codec
	}
}

// WithCSVRenderer replaces the default CSV renderer
func WithCSVRenderer(renderer CSVRenderer) Option {
	return func(e *Exporter) {
		e.csv = renderer
	}
}

// WithQuerier sets the selector resolver used by SaveImage
func WithQuerier(querier Querier) Option {
	return func(e *Exporter) {
		e.querier = querier
	}
}

// WithPageSource sets the document read by SavePageHTML
func WithPageSource(page PageSource) Option {
	return func(e *Exporter) {
		e.page = page
	}
}

// WithStore sets the key-value store dumped by SaveStore
func WithStore(store KVStore) Option {
	return func(e *Exporter) {
		e.store = store
	}
}

// WithScriptProvider sets the script source dumped by SaveInstructions
func WithScriptProvider(scripts ScriptProvider) Option {
	return func(e *Exporter) {
		e.scripts = scripts
	}
}

// WithLogger sets where validation failures are reported
func WithLogger(logger Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// New creates a new exporter instance with the given options
func New(options ...Option) (*Exporter, error) {
	e := &Exporter{}
	for _, option := range options {
		if option != nil {
			option(e)
		}
	}

	if e.trigger == nil {
		return nil, fmt.Errorf("download trigger is required")
	}
	if e.builder == nil {
		e.builder = NewBlobBuilder()
	}
	if e.json == nil {
		e.json = NewJSONCodec()
	}
	if e.csv == nil {
		e.csv = NewCSVRenderer()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e, nil
}

// With returns a copy of the exporter with options applied on top.
// The copy shares collaborators with the original.
func (e *Exporter) With(options ...Option) *Exporter {
	clone := *e
	for _, option := range options {
		if option != nil {
			option(&clone)
		}
	}
	return &clone
}

// Trigger returns the download trigger
func (e *Exporter) Trigger() *Trigger {
	return e.trigger
}

// Builder returns the blob builder
func (e *Exporter) Builder() *BlobBuilder {
	return e.builder
}

// Exporter defaults
var (
	jsonDefaults         = Params{Filename: "data.json", Mime: "json"}
	csvDefaults          = Params{Filename: "data.csv", Mime: "csv"}
	htmlDefaults         = Params{Filename: "fragment.html", Mime: "html"}
	pageDefaults         = Params{Filename: "page.html", Mime: "html"}
	storeDefaults        = Params{Filename: "store.json"}
	instructionsDefaults = Params{Filename: "artoo_script.js", Mime: "text/javascript"}
)

// Save stores data as a file. Mime and Encoding select the blob type,
// Filename defaults to "artoo_data".
func (e *Exporter) Save(ctx context.Context, data []byte, params Params) {
	blob := e.builder.Build(data, params.Mime, params.Encoding)
	e.trigger.Save(ctx, blob, filenameOr(params.Filename, DefaultFilename))
}

// SaveText is Save for string data
func (e *Exporter) SaveText(ctx context.Context, text string, params Params) {
	blob := e.builder.BuildText(text, params.Mime, params.Encoding)
	e.trigger.Save(ctx, blob, filenameOr(params.Filename, DefaultFilename))
}

// SaveDataURL decodes an embedded data-URL and stores its bytes
func (e *Exporter) SaveDataURL(ctx context.Context, dataURL string, params Params) error {
	blob, err := e.builder.BuildFromDataURL(dataURL)
	if err != nil {
		return err
	}
	e.trigger.Save(ctx, blob, filenameOr(params.Filename, DefaultFilename))
	return nil
}

// SaveJSON serializes values, or passes JSON text through. With Pretty or
// Indent set the output is indented; JSON text is then parsed first and a
// *ParseError is returned when it is invalid.
func (e *Exporter) SaveJSON(ctx context.Context, input JSONInput, params Params) error {
	params = params.Extend(jsonDefaults)
	indent := params.indentWidth()

	var data []byte
	switch in := input.(type) {
	case JSONValue:
		out, err := e.json.Marshal(in.V, indent)
		if err != nil {
			return &ExportError{Op: "save json", Err: err}
		}
		data = out
	case JSONText:
		data = []byte(in)
		if indent > 0 {
			out, err := e.json.Reindent(data, indent)
			if err != nil {
				return err
			}
			data = out
		}
	default:
		return &ExportError{Op: "save json", Err: fmt.Errorf("%w: %T", ErrUnsupportedInput, input)}
	}

	e.Save(ctx, data, params)
	return nil
}

// SavePrettyJSON is SaveJSON with Pretty forced on
func (e *Exporter) SavePrettyJSON(ctx context.Context, input JSONInput, params Params) error {
	params.Pretty = true
	return e.SaveJSON(ctx, input, params)
}

// SaveCSV renders tabular input with the configured Delimiter and Escape.
// CSVText is saved unchanged.
func (e *Exporter) SaveCSV(ctx context.Context, input CSVInput, params Params) error {
	params = params.Extend(csvDefaults)

	var text string
	switch in := input.(type) {
	case CSVText:
		text = string(in)
	case CSVRows, CSVRecords, CSVStructs:
		table, err := toTable(in)
		if err != nil {
			return &ExportError{Op: "save csv", Err: err}
		}
		text, err = e.csv.RenderCSV(table, params.Delimiter, params.Escape)
		if err != nil {
			return &ExportError{Op: "save csv", Err: err}
		}
	default:
		return &ExportError{Op: "save csv", Err: fmt.Errorf("%w: %T", ErrUnsupportedInput, input)}
	}

	e.SaveText(ctx, text, params)
	return nil
}

// SaveHTML stores markup, or the inner markup of a selected element
func (e *Exporter) SaveHTML(ctx context.Context, input HTMLInput, params Params) error {
	params = params.Extend(htmlDefaults)

	var markup string
	switch in := input.(type) {
	case HTMLText:
		markup = string(in)
	case HTMLSelection:
		if in.Element == nil {
			return &ExportError{Op: "save html", Err: fmt.Errorf("%w: empty selection", ErrUnsupportedInput)}
		}
		out, err := in.Element.InnerHTML()
		if err != nil {
			return &ExportError{Op: "save html", Err: err}
		}
		markup = out
	default:
		return &ExportError{Op: "save html", Err: fmt.Errorf("%w: %T", ErrUnsupportedInput, input)}
	}

	e.SaveText(ctx, markup, params)
	return nil
}

// SavePageHTML stores the markup of the current document
func (e *Exporter) SavePageHTML(ctx context.Context, params Params) error {
	if e.page == nil {
		return &ExportError{Op: "save page html", Err: fmt.Errorf("%w: page source", ErrMissingCollaborator)}
	}
	markup, err := e.page.DocumentHTML(ctx)
	if err != nil {
		return &ExportError{Op: "save page html", Err: err}
	}
	e.SaveText(ctx, markup, params.Extend(pageDefaults))
	return nil
}

// SaveStore dumps the value stored under Key, or the whole store, as pretty JSON
func (e *Exporter) SaveStore(ctx context.Context, params Params) error {
	if e.store == nil {
		return &ExportError{Op: "save store", Err: fmt.Errorf("%w: store", ErrMissingCollaborator)}
	}
	value, err := e.store.Get(ctx, params.Key)
	if err != nil {
		return &ExportError{Op: "save store", Err: err}
	}
	return e.SavePrettyJSON(ctx, JSONValue{V: value}, params.Extend(storeDefaults))
}

// SaveInstructions stores the generated script text
func (e *Exporter) SaveInstructions(ctx context.Context, params Params) error {
	if e.scripts == nil {
		return &ExportError{Op: "save instructions", Err: fmt.Errorf("%w: script provider", ErrMissingCollaborator)}
	}
	script, err := e.scripts.Script(ctx)
	if err != nil {
		return &ExportError{Op: "save instructions", Err: err}
	}
	e.SaveText(ctx, script, params.Extend(instructionsDefaults))
	return nil
}

// SaveResource asks the host to download a remote resource. The default
// filename is "media" plus the extension of the URL path.
func (e *Exporter) SaveResource(ctx context.Context, resourceURL string, params Params) {
	params = params.Extend(Params{Filename: withExtension("media", Extension(resourceURL))})
	e.trigger.SaveRemote(ctx, resourceURL, params.Filename)
}

// SaveImage downloads the source of an image element. The default filename
// is the alt text (or "image") plus the extension of the source URL.
//
// A target without a src attribute is reported to the logger and skipped;
// no error is returned.
func (e *Exporter) SaveImage(ctx context.Context, target ImageTarget, params Params) error {
	var el Element
	switch t := target.(type) {
	case ImageSelector:
		if e.querier == nil {
			return &ExportError{Op: "save image", Err: fmt.Errorf("%w: querier", ErrMissingCollaborator)}
		}
		if found, ok := e.querier.Query(string(t)); ok {
			el = found
		}
	case ImageElement:
		el = t.Element
	default:
		return &ExportError{Op: "save image", Err: fmt.Errorf("%w: %T", ErrUnsupportedInput, target)}
	}

	src := ""
	if el != nil {
		src, _ = el.Attr("src")
	}
	if src == "" {
		verr := &ValidationError{Op: "save image", Target: describeTarget(target, el), Err: ErrMissingSource}
		e.logger.Error("Trying to download an invalid image.", "target", verr.Target, "err", verr)
		return nil
	}

	name := "image"
	if alt, ok := el.Attr("alt"); ok && alt != "" {
		name = alt
	}
	e.SaveResource(ctx, src, params.Extend(Params{Filename: withExtension(name, Extension(src))}))
	return nil
}

func describeTarget(target ImageTarget, el Element) string {
	if sel, ok := target.(ImageSelector); ok {
		return string(sel)
	}
	if el == nil {
		return "<nil>"
	}
	return "<" + el.Tag() + ">"
}

func filenameOr(filename, fallback string) string {
	if filename == "" {
		return fallback
	}
	return filename
}
