package scraper

import (
	"strings"

	"image-extract-scraper/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	liveAttrBackground = "data-imgscan-bg"
	liveAttrWidth      = "data-imgscan-w"
	liveAttrHeight     = "data-imgscan-h"
	liveAttrSrc        = "data-imgscan-src"
)

// stampScript copies computed state the markup alone cannot show onto the live DOM,
// so the snapshot carries it. Returns the number of stamped backgrounds.
const stampScript = `(() => {
	let stamped = 0;
	for (const el of document.querySelectorAll('*')) {
		const bg = window.getComputedStyle(el).backgroundImage;
		if (bg && bg !== 'none') {
			el.setAttribute('data-imgscan-bg', bg);
			stamped++;
		}
		if (el.tagName === 'IMG') {
			if (el.width) el.setAttribute('data-imgscan-w', String(el.width));
			if (el.height) el.setAttribute('data-imgscan-h', String(el.height));
			if (el.src) el.setAttribute('data-imgscan-src', el.src);
		}
	}
	return stamped;
})()`

// liveDocument is a snapshot of a rendered page after stampScript ran
type liveDocument struct {
	doc *goquery.Document
}

// NewLiveDocument parses a stamped DOM snapshot
func NewLiveDocument(html string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &models.ParseError{Source: "rendered dom", Err: err}
	}
	return &liveDocument{doc: doc}, nil
}

func (d *liveDocument) Select(selector string) []Element {
	return selectAll(d.doc, selector, func(s *goquery.Selection) Element {
		return liveElement{staticElement{sel: s}}
	})
}

type liveElement struct {
	staticElement
}

// Attr prefers the resolved img src the browser reported
func (e liveElement) Attr(name string) string {
	if name == "src" && e.Tag() == "img" {
		if v := e.staticElement.Attr(liveAttrSrc); v != "" {
			return v
		}
	}
	return e.staticElement.Attr(name)
}

func (e liveElement) BackgroundImage() string {
	bg := e.staticElement.Attr(liveAttrBackground)
	if bg == "none" {
		return ""
	}
	return bg
}

func (e liveElement) Dimension(name string) string {
	stamp := ""
	switch name {
	case "width":
		stamp = liveAttrWidth
	case "height":
		stamp = liveAttrHeight
	}
	if stamp != "" {
		if v := e.staticElement.Attr(stamp); v != "" {
			return v
		}
	}
	return e.staticElement.Attr(name)
}
