package scraper

import (
	"net/url"
	"strings"
)

// TransformURL fills a URL template with the target. {url} is substituted as-is,
// {url_encoded} percent-encoded as a single component.
func TransformURL(template, target string) string {
	out := strings.ReplaceAll(template, "{url_encoded}", encodeComponent(target))
	return strings.ReplaceAll(out, "{url}", target)
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
