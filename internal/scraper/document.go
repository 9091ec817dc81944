package scraper

import (
	"strings"
	"sync"

	"image-extract-scraper/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/parser"
)

// Element is the read-only view of one node the scanner needs
type Element interface {
	Tag() string
	Attr(name string) string
	Text() string
	// BackgroundImage returns the element's background-image value, or "" when it has none.
	BackgroundImage() string
	// Dimension returns the width or height the element reports, or "" when absent.
	Dimension(name string) string
}

// Document answers CSS selector queries in document order
type Document interface {
	Select(selector string) []Element
}

var (
	selectorMu    sync.RWMutex
	selectorCache = map[string]cascadia.Selector{}
)

func compileSelector(selector string) (cascadia.Selector, error) {
	selectorMu.RLock()
	sel, ok := selectorCache[selector]
	selectorMu.RUnlock()
	if ok {
		return sel, nil
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}

	selectorMu.Lock()
	selectorCache[selector] = sel
	selectorMu.Unlock()
	return sel, nil
}

func selectAll(doc *goquery.Document, selector string, wrap func(*goquery.Selection) Element) []Element {
	sel, err := compileSelector(selector)
	if err != nil {
		return nil
	}
	var out []Element
	doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, wrap(s))
	})
	return out
}

// staticDocument is backed by parsed markup only; styles come from inline declarations.
type staticDocument struct {
	doc *goquery.Document
}

// NewStaticDocument parses raw markup into a Document
func NewStaticDocument(html string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &models.ParseError{Source: "html", Err: err}
	}
	return &staticDocument{doc: doc}, nil
}

func (d *staticDocument) Select(selector string) []Element {
	return selectAll(d.doc, selector, func(s *goquery.Selection) Element {
		return staticElement{sel: s}
	})
}

type staticElement struct {
	sel *goquery.Selection
}

func (e staticElement) Tag() string {
	return goquery.NodeName(e.sel)
}

func (e staticElement) Attr(name string) string {
	return strings.TrimSpace(e.sel.AttrOr(name, ""))
}

func (e staticElement) Text() string {
	return e.sel.Text()
}

func (e staticElement) Dimension(name string) string {
	return e.Attr(name)
}

func (e staticElement) BackgroundImage() string {
	return inlineBackgroundImage(e.sel.AttrOr("style", ""))
}

// inlineBackgroundImage reads background-image, or a url() inside the background shorthand,
// from an inline style attribute.
func inlineBackgroundImage(style string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return ""
	}
	// the declaration parser drops the value of an unterminated last declaration
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return ""
	}
	var shorthand string
	for _, d := range decls {
		if d == nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(d.Property)) {
		case "background-image":
			return strings.TrimSpace(d.Value)
		case "background":
			if strings.Contains(strings.ToLower(d.Value), "url(") {
				shorthand = strings.TrimSpace(d.Value)
			}
		}
	}
	return shorthand
}
