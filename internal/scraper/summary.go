package scraper

import (
	"net/url"
	"strings"

	"image-extract-scraper/internal/models"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog/log"
)

// Summarize extracts page-level metadata from the retrieved page. Readability runs first;
// meta tags fill whatever it leaves empty. Failures yield an empty summary, never an error.
func Summarize(doc Document, html, pageURL string) models.PageSummary {
	var summary models.PageSummary

	if parsed, err := url.Parse(pageURL); err == nil && strings.TrimSpace(html) != "" {
		article, err := readability.FromReader(strings.NewReader(html), parsed)
		if err != nil {
			log.Debug().Err(err).Str("url", pageURL).Msg("readability summary unavailable")
		} else {
			summary.Title = CleanWhitespace(article.Title)
			summary.SiteName = CleanWhitespace(article.SiteName)
			summary.LeadImage = article.Image
			summary.Favicon = article.Favicon
		}
	}

	if doc != nil {
		fillFromMeta(doc, &summary)
	}

	if lead, ok := NormalizeImageURL(summary.LeadImage, pageURL); ok {
		summary.LeadImage = lead
	} else {
		summary.LeadImage = ""
	}
	if icon, ok := NormalizeImageURL(summary.Favicon, pageURL); ok {
		summary.Favicon = icon
	} else {
		summary.Favicon = ""
	}
	return summary
}

func fillFromMeta(doc Document, summary *models.PageSummary) {
	if summary.Title == "" {
		summary.Title = firstText(
			func() string { return findMetaTag(doc, "og:title", "") },
			func() string { return findMetaTag(doc, "", "twitter:title") },
			func() string { return firstElementText(doc, "title") },
			func() string { return firstElementText(doc, "h1") },
		)
	}
	if summary.SiteName == "" {
		summary.SiteName = CleanWhitespace(findMetaTag(doc, "og:site_name", "application-name"))
	}
	if summary.LeadImage == "" {
		summary.LeadImage = findMetaTag(doc, "og:image", "twitter:image")
	}
	if summary.Favicon == "" {
		for _, el := range doc.Select(`link[rel*="icon"]`) {
			if href := strings.TrimSpace(el.Attr("href")); href != "" {
				summary.Favicon = href
				break
			}
		}
	}
}

// findMetaTag returns the content of the first meta tag matching property or name
func findMetaTag(doc Document, property, name string) string {
	for _, el := range doc.Select("meta") {
		if property != "" && el.Attr("property") == property {
			if content := strings.TrimSpace(el.Attr("content")); content != "" {
				return content
			}
		}
		if name != "" && el.Attr("name") == name {
			if content := strings.TrimSpace(el.Attr("content")); content != "" {
				return content
			}
		}
	}
	return ""
}

func firstElementText(doc Document, selector string) string {
	els := doc.Select(selector)
	if len(els) == 0 {
		return ""
	}
	return els[0].Text()
}

func firstText(sources ...func() string) string {
	for _, src := range sources {
		if v := CleanWhitespace(src()); v != "" {
			return v
		}
	}
	return ""
}
