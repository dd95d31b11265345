// Package dom resolves selectors against parsed HTML documents with goquery.
package dom

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tendant/simple-export/pkg/simpleexport"
)

// Document is a parsed HTML document. It implements simpleexport.Querier and
// simpleexport.PageSource.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML document from r
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses markup
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Query returns the first element matching selector. Invalid selectors match nothing.
func (d *Document) Query(selector string) (simpleexport.Element, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return Element{sel: sel}, true
}

// DocumentHTML returns the inner markup of the <html> element
func (d *Document) DocumentHTML(ctx context.Context) (string, error) {
	return d.doc.Find("html").First().Html()
}

// Element wraps a single-node goquery selection
type Element struct {
	sel *goquery.Selection
}

// Tag returns the lower-case element name
func (e Element) Tag() string {
	return goquery.NodeName(e.sel)
}

// Attr returns an attribute value and whether it is present
func (e Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

// InnerHTML returns the markup of the element's children
func (e Element) InnerHTML() (string, error) {
	return e.sel.Html()
}
