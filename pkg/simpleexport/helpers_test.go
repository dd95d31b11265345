package simpleexport

import (
	"context"
	"fmt"
	"sync"
)

// fakeHost records clicks and mints references through ObjectURLs
type fakeHost struct {
	*ObjectURLs

	mu       sync.Mutex
	clicks   []DownloadLink
	clickErr error
	mintErr  error
	revoked  []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{ObjectURLs: NewObjectURLs("https://test.local")}
}

func (h *fakeHost) DownloadCapability() (CanTriggerDownload, bool) {
	return h, true
}

func (h *fakeHost) CreateObjectURL(b *Blob) (string, error) {
	if h.mintErr != nil {
		return "", h.mintErr
	}
	return h.ObjectURLs.CreateObjectURL(b)
}

func (h *fakeHost) RevokeObjectURL(ref string) {
	h.mu.Lock()
	h.revoked = append(h.revoked, ref)
	h.mu.Unlock()
	h.ObjectURLs.RevokeObjectURL(ref)
}

func (h *fakeHost) Click(ctx context.Context, link DownloadLink) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clicks = append(h.clicks, link)
	return h.clickErr
}

// recordingLogger captures reported errors
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
	args    [][]any
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, msg)
	l.args = append(l.args, args)
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// fakeElement is a detached element with fixed attributes
type fakeElement struct {
	tag   string
	attrs map[string]string
	inner string
	err   error
}

func (e fakeElement) Tag() string { return e.tag }

func (e fakeElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e fakeElement) InnerHTML() (string, error) {
	return e.inner, e.err
}

type fakeQuerier map[string]Element

func (q fakeQuerier) Query(selector string) (Element, bool) {
	el, ok := q[selector]
	return el, ok
}

type fakeStore map[string]any

func (s fakeStore) Get(ctx context.Context, key string) (any, error) {
	if key == "" {
		return map[string]any(s), nil
	}
	v, ok := s[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found", key)
	}
	return v, nil
}

type pageFunc func(ctx context.Context) (string, error)

func (f pageFunc) DocumentHTML(ctx context.Context) (string, error) {
	return f(ctx)
}
