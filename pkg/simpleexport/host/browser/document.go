//go:build js && wasm

package browser

import (
	"context"
	"strings"
	"syscall/js"

	"github.com/tendant/simple-export/pkg/simpleexport"
)

// Document resolves selectors against the live page
type Document struct{}

// Query returns the first element matching selector
func (Document) Query(selector string) (el simpleexport.Element, ok bool) {
	defer func() {
		// querySelector throws on invalid selectors
		if recover() != nil {
			el, ok = nil, false
		}
	}()

	v := jsDocument.Call("querySelector", selector)
	if v.IsNull() || v.IsUndefined() {
		return nil, false
	}
	return element{v: v}, true
}

// DocumentHTML returns document.documentElement.innerHTML
func (Document) DocumentHTML(ctx context.Context) (string, error) {
	return jsDocument.Get("documentElement").Get("innerHTML").String(), nil
}

type element struct {
	v js.Value
}

func (e element) Tag() string {
	return strings.ToLower(e.v.Get("tagName").String())
}

func (e element) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e element) InnerHTML() (string, error) {
	return e.v.Get("innerHTML").String(), nil
}

// Wrap adapts a DOM node obtained elsewhere
func Wrap(v js.Value) simpleexport.Element {
	return element{v: v}
}
