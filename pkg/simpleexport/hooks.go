package simpleexport

import "context"

// Hook system allows observing the download lifecycle without modifying the trigger.
// Hooks run synchronously on the dispatching goroutine.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	// BeforeDispatch runs once the host capability is confirmed, before WRITING
	BeforeDispatch []BeforeDispatchHook

	// AfterDispatch runs after the host click returned
	AfterDispatch []AfterDispatchHook

	// OnStateChange runs on every TransferState transition
	OnStateChange []StateChangeHook

	// OnError runs when the host reported a failure that was logged
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{} // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// BeforeDispatchHook is called before a request is handed to the host
type BeforeDispatchHook func(hctx *HookContext, req DownloadRequest)

// AfterDispatchHook is called after the host click returned; err is the host's report
type AfterDispatchHook func(hctx *HookContext, req DownloadRequest, err error)

// StateChangeHook is called when the transfer state advances
type StateChangeHook func(hctx *HookContext, req DownloadRequest, from, to TransferState)

// ErrorHook is called when an error is reported instead of returned
type ErrorHook func(hctx *HookContext, operation string, err error)

func (h *Hooks) executeBeforeDispatch(hctx *HookContext, req DownloadRequest) {
	if h == nil {
		return
	}
	hctx.StopChain = false
	for _, hook := range h.BeforeDispatch {
		hook(hctx, req)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeAfterDispatch(hctx *HookContext, req DownloadRequest, err error) {
	if h == nil {
		return
	}
	hctx.StopChain = false
	for _, hook := range h.AfterDispatch {
		hook(hctx, req, err)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeStateChange(hctx *HookContext, req DownloadRequest, from, to TransferState) {
	if h == nil {
		return
	}
	hctx.StopChain = false
	for _, hook := range h.OnStateChange {
		hook(hctx, req, from, to)
		if hctx.StopChain {
			break
		}
	}
}

func (h *Hooks) executeError(hctx *HookContext, operation string, err error) {
	if h == nil {
		return
	}
	hctx.StopChain = false
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}
