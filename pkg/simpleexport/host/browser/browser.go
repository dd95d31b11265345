//go:build js && wasm

// Package browser is the host for Go compiled to WebAssembly and running in
// a page. Files are saved through a Blob object URL and a synthetic click
// on an anchor carrying the download attribute.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/tendant/simple-export/pkg/simpleexport"
)

const xhtmlNS = "http://www.w3.org/1999/xhtml"

var (
	jsBlob       = js.Global().Get("Blob")
	jsURL        = js.Global().Get("URL")
	jsDocument   = js.Global().Get("document")
	jsUint8Array = js.Global().Get("Uint8Array")
)

// Host is the page the program runs in
type Host struct{}

// New returns the page host
func New() *Host {
	return &Host{}
}

// DownloadCapability reports the host when anchors support the download
// attribute and the page is not embedded in an extension host frame.
func (h *Host) DownloadCapability() (simpleexport.CanTriggerDownload, bool) {
	if !jsDocument.Truthy() || js.Global().Get("externalHost").Truthy() {
		return nil, false
	}
	anchor := jsDocument.Call("createElementNS", xhtmlNS, "a")
	if !js.Global().Get("Reflect").Call("has", anchor, "download").Bool() {
		return nil, false
	}
	return h, true
}

// CreateObjectURL copies b into a JS Blob and returns URL.createObjectURL of it
func (h *Host) CreateObjectURL(b *simpleexport.Blob) (ref string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jsError(r)
		}
	}()

	data := b.Bytes()
	arr := jsUint8Array.New(len(data))
	js.CopyBytesToJS(arr, data)

	blob := jsBlob.New([]any{arr}, map[string]any{"type": b.Type()})
	return jsURL.Call("createObjectURL", blob).String(), nil
}

// RevokeObjectURL calls URL.revokeObjectURL
func (h *Host) RevokeObjectURL(ref string) {
	jsURL.Call("revokeObjectURL", ref)
}

// Click dispatches a click event on a detached anchor
func (h *Host) Click(ctx context.Context, link simpleexport.DownloadLink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jsError(r)
		}
	}()

	anchor := jsDocument.Call("createElementNS", xhtmlNS, "a")
	anchor.Set("href", link.Href)
	anchor.Set("download", link.Download)

	event := js.Global().Get("MouseEvent").New("click", map[string]any{
		"bubbles":    true,
		"cancelable": false,
		"view":       js.Global(),
	})
	anchor.Call("dispatchEvent", event)
	return nil
}

func jsError(r any) error {
	if jsErr, ok := r.(js.Error); ok {
		return jsErr
	}
	return errors.New(strings.TrimSpace(fmt.Sprint(r)))
}
