package scraper

import (
	"html"
	"regexp"
	"strings"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
)

// Lazy-loading attributes checked on <img> after src, in priority order
var imgLazyAttrs = []string{
	"data-src",
	"data-lazy-src",
	"data-original",
	"data-srcset",
	"data-image",
	"data-url",
	"data-lazy",
	"data-original-src",
	"data-full-src",
}

var (
	sourceSetAttrs   = []string{"srcset", "data-srcset", "data-src", "data-lazy-src"}
	genericLazyAttrs = []string{"data-image", "data-img", "data-src", "data-lazy"}
)

const (
	selectorImages      = "img"
	selectorSources     = "picture source"
	selectorAll         = "*"
	selectorGenericLazy = "[data-image], [data-img], [data-src], [data-lazy]"
	selectorJSONLD      = `script[type="application/ld+json"]`
	selectorMetaImages  = `meta[property="og:image"], meta[name="twitter:image"]`
	selectorLinkImages  = `link[rel*="icon"], link[rel*="image"]`
	selectorStyles      = "style"
	selectorInline      = "[style]"
)

// Scanner discovers image references in a Document
type Scanner struct {
	regexes   map[string]*regexp.Regexp
	sanitizer *bluemonday.Policy
}

func NewScanner() *Scanner {
	return &Scanner{
		regexes:   config.CompileRegexes(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Scan runs every discovery rule in fixed order and returns descriptors in discovery order.
// A URL found by more than one rule keeps the metadata of the first.
func (s *Scanner) Scan(doc Document, baseURL string) []models.ImageDescriptor {
	c := &collector{scanner: s, base: baseURL, seen: make(map[string]struct{})}

	s.scanImgElements(doc, c)
	s.scanPictureSources(doc, c)
	s.scanBackgrounds(doc, c)
	s.scanGenericLazy(doc, c)
	s.scanJSONLD(doc, c)
	s.scanMeta(doc, c)
	s.scanLinks(doc, c)
	s.scanStyleBlocks(doc, c)
	s.scanInlineStyles(doc, c)

	return c.images
}

// ScanHTML parses markup and scans it
func (s *Scanner) ScanHTML(markup, baseURL string) ([]models.ImageDescriptor, error) {
	doc, err := NewStaticDocument(markup)
	if err != nil {
		return nil, err
	}
	return s.Scan(doc, baseURL), nil
}

func (s *Scanner) scanImgElements(doc Document, c *collector) {
	for _, el := range doc.Select(selectorImages) {
		if src := el.Attr("src"); src != "" {
			c.add(src, el)
			continue
		}
		for _, attr := range imgLazyAttrs {
			v := el.Attr(attr)
			if v == "" {
				continue
			}
			if attr == "data-srcset" {
				v = s.firstSrcsetURL(v)
			}
			c.add(v, el)
			break
		}
	}
}

func (s *Scanner) scanPictureSources(doc Document, c *collector) {
	for _, el := range doc.Select(selectorSources) {
		if set := firstNonEmpty(el, sourceSetAttrs); set != "" {
			if ref := s.firstSrcsetURL(set); ref != "" {
				c.add(ref, el)
			}
		}
	}
}

func (s *Scanner) scanBackgrounds(doc Document, c *collector) {
	for _, el := range doc.Select(selectorAll) {
		bg := el.BackgroundImage()
		if bg == "" || bg == "none" {
			continue
		}
		if m := s.regexes["cssURLValue"].FindStringSubmatch(bg); len(m) == 2 {
			c.add(m[1], el)
		}
	}
}

func (s *Scanner) scanGenericLazy(doc Document, c *collector) {
	for _, el := range doc.Select(selectorGenericLazy) {
		c.add(firstNonEmpty(el, genericLazyAttrs), el)
	}
}

func (s *Scanner) scanJSONLD(doc Document, c *collector) {
	for _, el := range doc.Select(selectorJSONLD) {
		var payload any
		if err := sonic.UnmarshalString(strings.TrimSpace(el.Text()), &payload); err != nil {
			log.Debug().Err(&models.ParseError{Source: "json-ld", Err: err}).Str("base", c.base).Msg("skipping structured data block")
			continue
		}
		for _, ref := range jsonLDImages(payload) {
			c.add(ref, nil)
		}
	}
}

func (s *Scanner) scanMeta(doc Document, c *collector) {
	for _, el := range doc.Select(selectorMetaImages) {
		c.add(el.Attr("content"), el)
	}
}

func (s *Scanner) scanLinks(doc Document, c *collector) {
	for _, el := range doc.Select(selectorLinkImages) {
		c.add(el.Attr("href"), el)
	}
}

func (s *Scanner) scanStyleBlocks(doc Document, c *collector) {
	for _, el := range doc.Select(selectorStyles) {
		for _, ref := range stylesheetImageRefs(el.Text(), s.regexes) {
			c.add(ref, el)
		}
	}
}

func (s *Scanner) scanInlineStyles(doc Document, c *collector) {
	for _, el := range doc.Select(selectorInline) {
		for _, ref := range cssImageRefs(el.Attr("style"), s.regexes) {
			c.add(ref, el)
		}
	}
}

func (s *Scanner) firstSrcsetURL(set string) string {
	return s.regexes["srcsetFirst"].FindString(strings.TrimSpace(set))
}

// altText sanitizes markup out of alt attributes on hostile pages
func (s *Scanner) altText(el Element) string {
	if el == nil || el.Tag() != "img" {
		return models.DefaultAltText
	}
	alt := CleanWhitespace(html.UnescapeString(s.sanitizer.Sanitize(el.Attr("alt"))))
	if alt == "" {
		return models.DefaultAltText
	}
	return alt
}

// jsonLDImages collects "image" entries from a decoded payload. Top-level arrays and
// @graph arrays are walked.
func jsonLDImages(payload any) []string {
	var refs []string
	switch v := payload.(type) {
	case []any:
		for _, item := range v {
			refs = append(refs, jsonLDImages(item)...)
		}
	case map[string]any:
		if image, ok := v["image"]; ok {
			refs = append(refs, jsonLDImageValues(image)...)
		}
		if graph, ok := v["@graph"].([]any); ok {
			refs = append(refs, jsonLDImages(graph)...)
		}
	}
	return refs
}

func jsonLDImageValues(image any) []string {
	switch v := image.(type) {
	case string:
		return []string{v}
	case []any:
		var refs []string
		for _, item := range v {
			refs = append(refs, jsonLDImageValues(item)...)
		}
		return refs
	case map[string]any:
		for _, key := range []string{"url", "contentUrl"} {
			if s, ok := v[key].(string); ok && s != "" {
				return []string{s}
			}
		}
	}
	return nil
}

func firstNonEmpty(el Element, attrs []string) string {
	for _, attr := range attrs {
		if v := el.Attr(attr); v != "" {
			return v
		}
	}
	return ""
}

// collector normalizes, deduplicates and records descriptors in discovery order
type collector struct {
	scanner *Scanner
	base    string
	seen    map[string]struct{}
	images  []models.ImageDescriptor
}

func (c *collector) add(ref string, el Element) {
	abs, ok := NormalizeImageURL(ref, c.base)
	if !ok {
		return
	}
	if _, dup := c.seen[abs]; dup {
		return
	}
	c.seen[abs] = struct{}{}

	c.images = append(c.images, models.ImageDescriptor{
		URL:    abs,
		Width:  dimensionOrUnknown(el, "width"),
		Height: dimensionOrUnknown(el, "height"),
		Alt:    c.scanner.altText(el),
		Format: ClassifyFormat(abs),
	})
}

func dimensionOrUnknown(el Element, name string) string {
	if el == nil {
		return models.UnknownDimension
	}
	if v := el.Dimension(name); v != "" {
		return v
	}
	return models.UnknownDimension
}
