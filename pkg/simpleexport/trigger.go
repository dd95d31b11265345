package simpleexport

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Trigger performs the host save sequence for one request at a time.
//
// Whether the host can download at all is decided when the trigger is
// built. Without that capability every call ends in StateInit and nothing
// is saved; this is not an error.
type Trigger struct {
	capability CanTriggerDownload
	registry   *Registry
	logger     Logger
	hooks      *Hooks
	readyState atomic.Int32
}

// TriggerOption configures a Trigger
type TriggerOption func(*Trigger)

// WithRegistry shares a registry between triggers minting on the same host
func WithRegistry(registry *Registry) TriggerOption {
	return func(t *Trigger) {
		t.registry = registry
	}
}

// WithTriggerLogger sets where host failures are reported
func WithTriggerLogger(logger Logger) TriggerOption {
	return func(t *Trigger) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithHooks installs lifecycle hooks
func WithHooks(hooks *Hooks) TriggerOption {
	return func(t *Trigger) {
		t.hooks = hooks
	}
}

// Probe asks host for its download capability; nil when it has none
func Probe(host Host) CanTriggerDownload {
	if host == nil {
		return nil
	}
	capability, ok := host.DownloadCapability()
	if !ok {
		return nil
	}
	return capability
}

// NewTrigger creates a trigger over capability. A nil capability yields a
// trigger that never saves.
func NewTrigger(capability CanTriggerDownload, opts ...TriggerOption) *Trigger {
	t := &Trigger{
		capability: capability,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if t.registry == nil && capability != nil {
		t.registry = NewRegistry(capability)
	}
	return t
}

// Enabled reports whether the host can save files
func (t *Trigger) Enabled() bool {
	return t.capability != nil
}

// ReadyState returns the state reached by the most recent dispatch
func (t *Trigger) ReadyState() TransferState {
	return TransferState(t.readyState.Load())
}

// Registry returns the reference registry, nil when the trigger is disabled
func (t *Trigger) Registry() *Registry {
	return t.registry
}

// Save asks the host to store b under filename
func (t *Trigger) Save(ctx context.Context, b *Blob, filename string) {
	t.Dispatch(ctx, DownloadRequest{Blob: b, Filename: filename})
}

// SaveRemote asks the host to fetch resourceURL and store it under filename
func (t *Trigger) SaveRemote(ctx context.Context, resourceURL, filename string) {
	t.Dispatch(ctx, DownloadRequest{RemoteURL: resourceURL, Filename: filename})
}

// Dispatch runs INIT -> WRITING -> DONE for req and returns the request as
// seen by the host. Success is never confirmed: DONE only means the host
// click returned.
func (t *Trigger) Dispatch(ctx context.Context, req DownloadRequest) DownloadRequest {
	hctx := NewHookContext(ctx)
	t.readyState.Store(int32(StateInit))

	if t.capability == nil {
		return req
	}

	t.hooks.executeBeforeDispatch(hctx, req)
	t.advance(hctx, req, StateInit, StateWriting)

	link := DownloadLink{Href: req.RemoteURL, Download: req.Filename}
	if !req.IsRemote() {
		ref, err := t.registry.Register(req.Blob)
		if err != nil {
			t.report(hctx, "register", err, req)
			t.advance(hctx, req, StateWriting, StateDone)
			return req
		}
		link.Href = ref
	}

	req.HostSave = true
	err := t.capability.Click(ctx, link)
	if err != nil {
		t.report(hctx, "click", err, req)
	}
	t.hooks.executeAfterDispatch(hctx, req, err)
	t.advance(hctx, req, StateWriting, StateDone)
	return req
}

func (t *Trigger) advance(hctx *HookContext, req DownloadRequest, from, to TransferState) {
	t.readyState.Store(int32(to))
	t.hooks.executeStateChange(hctx, req, from, to)
}

func (t *Trigger) report(hctx *HookContext, op string, err error, req DownloadRequest) {
	t.logger.Error("Download dispatch failed", "op", op, "filename", req.Filename, "err", err)
	t.hooks.executeError(hctx, op, err)
}
