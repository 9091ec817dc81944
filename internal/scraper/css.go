package scraper

import (
	"regexp"

	cssast "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/rs/zerolog/log"
)

// cssImageRefs returns url() references ending in a known image extension, in source order
func cssImageRefs(text string, regexes map[string]*regexp.Regexp) []string {
	var refs []string
	for _, match := range regexes["cssImageURL"].FindAllString(text, -1) {
		if inner := regexes["cssURLValue"].FindStringSubmatch(match); len(inner) == 2 {
			refs = append(refs, inner[1])
		}
	}
	return refs
}

// stylesheetImageRefs walks a stylesheet's declarations, nested at-rules included.
// Unparseable sheets fall back to scanning the raw text.
func stylesheetImageRefs(text string, regexes map[string]*regexp.Regexp) []string {
	sheet, err := parser.Parse(text)
	if err != nil {
		log.Debug().Err(err).Msg("stylesheet parse failed, scanning raw text")
		return cssImageRefs(text, regexes)
	}

	var refs []string
	var walk func(rules []*cssast.Rule, depth int)
	walk = func(rules []*cssast.Rule, depth int) {
		if depth >= 16 {
			return
		}
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			for _, decl := range rule.Declarations {
				if decl == nil {
					continue
				}
				refs = append(refs, cssImageRefs(decl.Value, regexes)...)
			}
			walk(rule.Rules, depth+1)
		}
	}
	walk(sheet.Rules, 0)
	return refs
}
