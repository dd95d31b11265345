package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/dom"
	"github.com/tendant/simple-export/pkg/simpleexport/host/httpresp"
	"github.com/tendant/simple-export/pkg/simpleexport/kvstore"
	"github.com/tendant/simple-export/pkg/simpleexport/remote"
)

// TransferStateHeader reports the transfer state reached when the response was committed
const TransferStateHeader = "X-Transfer-State"

// DefaultMaxBodyBytes caps request bodies
const DefaultMaxBodyBytes = 32 << 20

// ErrSelectorNotFound indicates a selector matched nothing in the posted document
var ErrSelectorNotFound = errors.New("selector matched no element")

// ExportHandler answers export requests with the exported file as an attachment
type ExportHandler struct {
	exporter     *simpleexport.Exporter
	fetcher      remote.Fetcher
	tokenAuth    *jwtauth.JWTAuth
	maxBodyBytes int64
	logger       *slog.Logger
}

// HandlerOption configures an ExportHandler
type HandlerOption func(*ExportHandler)

// WithFetcher lets /resource and /image proxy remote files
func WithFetcher(fetcher remote.Fetcher) HandlerOption {
	return func(h *ExportHandler) {
		h.fetcher = fetcher
	}
}

// WithTokenAuth requires a valid bearer token on every route
func WithTokenAuth(tokenAuth *jwtauth.JWTAuth) HandlerOption {
	return func(h *ExportHandler) {
		h.tokenAuth = tokenAuth
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *ExportHandler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithLogger sets the handler logger
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *ExportHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewExportHandler creates a handler. exporter supplies the blob builder and
// store; its host is replaced by the response on every request.
func NewExportHandler(exporter *simpleexport.Exporter, opts ...HandlerOption) *ExportHandler {
	h := &ExportHandler{
		exporter:     exporter,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for export endpoints
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.tokenAuth != nil {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Use(jwtauth.Authenticator)
	}
	r.Post("/text", h.SaveText)
	r.Post("/dataurl", h.SaveDataURL)
	r.Post("/json", h.SaveJSON)
	r.Post("/csv", h.SaveCSV)
	r.Post("/html", h.SaveHTML)
	r.Post("/page", h.SavePage)
	r.Post("/image", h.SaveImage)
	r.Get("/store", h.SaveStore)
	r.Get("/resource", h.SaveResource)
	return r
}

// ErrorResponse is the JSON body of failed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// exchange is one request served by a per-request response host
type exchange struct {
	w        http.ResponseWriter
	r        *http.Request
	host     *httpresp.Host
	trigger  *simpleexport.Trigger
	exporter *simpleexport.Exporter
	hostErr  error
}

func (h *ExportHandler) begin(w http.ResponseWriter, r *http.Request, opts ...simpleexport.Option) *exchange {
	x := &exchange{w: w, r: r}

	var hostOpts []httpresp.Option
	if h.fetcher != nil {
		hostOpts = append(hostOpts, httpresp.WithFetcher(h.fetcher))
	}
	x.host = httpresp.New(w, hostOpts...)

	hooks := &simpleexport.Hooks{
		OnStateChange: []simpleexport.StateChangeHook{
			func(hctx *simpleexport.HookContext, req simpleexport.DownloadRequest, from, to simpleexport.TransferState) {
				if !x.host.Written() {
					w.Header().Set(TransferStateHeader, to.String())
				}
			},
		},
		OnError: []simpleexport.ErrorHook{
			func(hctx *simpleexport.HookContext, operation string, err error) {
				x.hostErr = err
			},
		},
	}
	x.trigger = simpleexport.NewTrigger(x.host,
		simpleexport.WithHooks(hooks),
		simpleexport.WithTriggerLogger(h.logger),
	)
	x.exporter = h.exporter.With(append([]simpleexport.Option{simpleexport.WithTrigger(x.trigger)}, opts...)...)
	return x
}

// finish answers with an error or 204 when the exporter did not write a file
func (h *ExportHandler) finish(x *exchange, err error) {
	defer x.trigger.Registry().RevokeAll()

	if x.host.Written() {
		return
	}
	if err == nil {
		err = x.hostErr
	}
	x.w.Header().Set(TransferStateHeader, x.trigger.ReadyState().String())
	if err != nil {
		h.respondError(x.w, x.r, err)
		return
	}
	x.w.WriteHeader(http.StatusNoContent)
}

func (h *ExportHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Export failed", "path", r.URL.Path, "err", err)
	} else {
		h.logger.Warn("Export rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: http.StatusText(status), Message: err.Error()})
}

func statusFor(err error) int {
	var decodeErr *simpleexport.DecodeError
	var parseErr *simpleexport.ParseError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &decodeErr), errors.As(err, &parseErr),
		errors.Is(err, simpleexport.ErrUnsupportedInput),
		errors.Is(err, remote.ErrUnsupportedScheme):
		return http.StatusBadRequest
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrSelectorNotFound), errors.Is(err, kvstore.ErrNotFound), errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, simpleexport.ErrRemoteUnavailable):
		return http.StatusNotImplemented
	case errors.Is(err, remote.ErrForbiddenAddress):
		return http.StatusForbidden
	default:
		var fetchErr *remote.FetchError
		if errors.As(err, &fetchErr) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

func (h *ExportHandler) readBody(r *http.Request, w http.ResponseWriter) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
}

// params reads the common query parameters
func params(r *http.Request) (simpleexport.Params, error) {
	q := r.URL.Query()
	p := simpleexport.Params{
		Filename:  q.Get("filename"),
		Mime:      q.Get("mime"),
		Encoding:  q.Get("encoding"),
		Delimiter: q.Get("delimiter"),
		Escape:    q.Get("escape"),
		Key:       q.Get("key"),
	}
	if v := q.Get("pretty"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("%w: pretty=%q", simpleexport.ErrUnsupportedInput, v)
		}
		p.Pretty = pretty
	}
	if v := q.Get("indent"); v != "" {
		indent, err := strconv.Atoi(v)
		if err != nil || indent < 0 || indent > simpleexport.MaxIndent {
			return p, fmt.Errorf("%w: indent=%q", simpleexport.ErrUnsupportedInput, v)
		}
		p.Indent = indent
	}
	return p, nil
}

// serve reads params and body, runs fn and answers
func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, withBody bool, fn func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error) {
	p, err := params(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var body []byte
	if withBody {
		body, err = h.readBody(r, w)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	x := h.begin(w, r)
	h.finish(x, fn(r.Context(), x, p, body))
}

// SaveText saves the raw request body
func (h *ExportHandler) SaveText(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		x.exporter.Save(ctx, body, p)
		return nil
	})
}

// SaveDataURL decodes a data-URL body
func (h *ExportHandler) SaveDataURL(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		return x.exporter.SaveDataURL(ctx, strings.TrimSpace(string(body)), p)
	})
}

// SaveJSON saves a JSON body, reindented when pretty or indent is set
func (h *ExportHandler) SaveJSON(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		return x.exporter.SaveJSON(ctx, simpleexport.JSONText(body), p)
	})
}

// SaveCSV renders a JSON array of rows or objects, or saves CSV text as is
func (h *ExportHandler) SaveCSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		input, err := csvInput(r.Header.Get("Content-Type"), body)
		if err != nil {
			return err
		}
		return x.exporter.SaveCSV(ctx, input, p)
	})
}

// SaveHTML saves the posted markup, or the inner markup of ?selector
func (h *ExportHandler) SaveHTML(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		selector := r.URL.Query().Get("selector")
		if selector == "" {
			return x.exporter.SaveHTML(ctx, simpleexport.HTMLText(body), p)
		}

		doc, err := dom.ParseString(string(body))
		if err != nil {
			return err
		}
		el, ok := doc.Query(selector)
		if !ok {
			return fmt.Errorf("%w: %s", ErrSelectorNotFound, selector)
		}
		return x.exporter.SaveHTML(ctx, simpleexport.HTMLSelection{Element: el}, p)
	})
}

// SavePage saves the markup inside <html> of the posted document
func (h *ExportHandler) SavePage(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		doc, err := dom.ParseString(string(body))
		if err != nil {
			return err
		}
		return x.exporter.With(simpleexport.WithPageSource(doc)).SavePageHTML(ctx, p)
	})
}

// SaveImage downloads the image matched by ?selector in the posted document
func (h *ExportHandler) SaveImage(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		doc, err := dom.ParseString(string(body))
		if err != nil {
			return err
		}
		selector := r.URL.Query().Get("selector")
		if selector == "" {
			selector = "img"
		}
		return x.exporter.With(simpleexport.WithQuerier(doc)).SaveImage(ctx, simpleexport.ImageSelector(selector), p)
	})
}

// SaveStore dumps ?key, or the whole store, as pretty JSON
func (h *ExportHandler) SaveStore(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		return x.exporter.SaveStore(ctx, p)
	})
}

// SaveResource proxies ?url as an attachment
func (h *ExportHandler) SaveResource(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false, func(ctx context.Context, x *exchange, p simpleexport.Params, body []byte) error {
		resourceURL := r.URL.Query().Get("url")
		if resourceURL == "" {
			return fmt.Errorf("%w: url is required", simpleexport.ErrUnsupportedInput)
		}
		x.exporter.SaveResource(ctx, resourceURL, p)
		return nil
	})
}

// csvInput decodes JSON bodies into rows; other bodies are CSV text
func csvInput(contentType string, body []byte) (simpleexport.CSVInput, error) {
	if !strings.HasPrefix(contentType, "application/json") {
		return simpleexport.CSVText(body), nil
	}
	return simpleexport.ParseCSVJSON(body)
}
