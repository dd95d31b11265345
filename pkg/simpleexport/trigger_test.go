package simpleexport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_Disabled(t *testing.T) {
	trigger := NewTrigger(Probe(NewNoopHost()))
	assert.False(t, trigger.Enabled())
	assert.Nil(t, trigger.Registry())

	req := trigger.Dispatch(context.Background(), DownloadRequest{
		Blob:     NewBlobBuilder().BuildText("x", "", ""),
		Filename: "x.txt",
	})
	assert.False(t, req.HostSave)
	assert.Equal(t, StateInit, trigger.ReadyState())

	assert.Nil(t, Probe(nil))
}

func TestTrigger_Save(t *testing.T) {
	host := newFakeHost()
	trigger := NewTrigger(Probe(host))
	require.True(t, trigger.Enabled())

	blob := NewBlobBuilder().BuildText("hello", "", "")
	trigger.Save(context.Background(), blob, "hello.txt")

	assert.Equal(t, StateDone, trigger.ReadyState())
	require.Len(t, host.clicks, 1)
	assert.Equal(t, "hello.txt", host.clicks[0].Download)

	ref, ok := trigger.Registry().Resolve(host.clicks[0].Href)
	require.True(t, ok)
	assert.Same(t, blob, ref)

	// references stay live until RevokeAll
	assert.Equal(t, 1, trigger.Registry().Pending())
	trigger.Registry().RevokeAll()
	assert.Equal(t, 0, host.Len())
}

func TestTrigger_SaveRemote(t *testing.T) {
	host := newFakeHost()
	trigger := NewTrigger(host)

	trigger.SaveRemote(context.Background(), "https://example.com/cat.png", "cat.png")
	require.Len(t, host.clicks, 1)
	assert.Equal(t, DownloadLink{Href: "https://example.com/cat.png", Download: "cat.png"}, host.clicks[0])
	assert.Equal(t, 0, trigger.Registry().Pending())
}

func TestTrigger_StateTransitions(t *testing.T) {
	host := newFakeHost()
	var transitions []TransferState
	var before, after int

	trigger := NewTrigger(host, WithHooks(&Hooks{
		BeforeDispatch: []BeforeDispatchHook{func(hctx *HookContext, req DownloadRequest) { before++ }},
		AfterDispatch:  []AfterDispatchHook{func(hctx *HookContext, req DownloadRequest, err error) { after++ }},
		OnStateChange: []StateChangeHook{func(hctx *HookContext, req DownloadRequest, from, to TransferState) {
			transitions = append(transitions, from, to)
		}},
	}))

	req := trigger.Dispatch(context.Background(), DownloadRequest{
		Blob:     NewBlobBuilder().BuildText("x", "", ""),
		Filename: "x.txt",
	})
	assert.True(t, req.HostSave)
	assert.Equal(t, 1, before)
	assert.Equal(t, 1, after)
	assert.Equal(t, []TransferState{StateInit, StateWriting, StateWriting, StateDone}, transitions)
	assert.Equal(t, "done", trigger.ReadyState().String())
}

func TestTrigger_HostErrorsAreLogged(t *testing.T) {
	t.Run("click", func(t *testing.T) {
		host := newFakeHost()
		host.clickErr = errors.New("popup blocked")
		logger := &recordingLogger{}
		var hookErr error

		trigger := NewTrigger(host, WithTriggerLogger(logger), WithHooks(&Hooks{
			OnError: []ErrorHook{func(hctx *HookContext, op string, err error) { hookErr = err }},
		}))
		trigger.Save(context.Background(), NewBlobBuilder().BuildText("x", "", ""), "x.txt")

		assert.Equal(t, StateDone, trigger.ReadyState())
		assert.Equal(t, 1, logger.count())
		assert.EqualError(t, hookErr, "popup blocked")
	})

	t.Run("register", func(t *testing.T) {
		host := newFakeHost()
		host.mintErr = errors.New("no memory")
		logger := &recordingLogger{}

		trigger := NewTrigger(host, WithTriggerLogger(logger))
		trigger.Save(context.Background(), NewBlobBuilder().BuildText("x", "", ""), "x.txt")

		assert.Empty(t, host.clicks)
		assert.Equal(t, StateDone, trigger.ReadyState())
		assert.Equal(t, 1, logger.count())
	})
}

func TestTrigger_SharedRegistry(t *testing.T) {
	host := newFakeHost()
	registry := NewRegistry(host)
	a := NewTrigger(host, WithRegistry(registry))
	b := NewTrigger(host, WithRegistry(registry))

	blob := NewBlobBuilder().BuildText("x", "", "")
	a.Save(context.Background(), blob, "a.txt")
	b.Save(context.Background(), blob, "b.txt")

	assert.Equal(t, 1, registry.Pending())
	assert.Equal(t, host.clicks[0].Href, host.clicks[1].Href)
}

func TestHooks_StopChain(t *testing.T) {
	var calls []string
	hooks := &Hooks{
		OnStateChange: []StateChangeHook{
			func(hctx *HookContext, req DownloadRequest, from, to TransferState) {
				calls = append(calls, "first")
				hctx.StopChain = true
			},
			func(hctx *HookContext, req DownloadRequest, from, to TransferState) {
				calls = append(calls, "second")
			},
		},
	}

	trigger := NewTrigger(newFakeHost(), WithHooks(hooks))
	trigger.Save(context.Background(), NewBlobBuilder().BuildText("x", "", ""), "x.txt")
	assert.Equal(t, []string{"first", "first"}, calls)
}
