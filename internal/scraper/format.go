package scraper

import (
	"strings"

	"image-extract-scraper/internal/models"
)

var extensionFormats = map[string]models.Format{
	"jpg":  models.FormatJPEG,
	"jpeg": models.FormatJPEG,
	"png":  models.FormatPNG,
	"gif":  models.FormatGIF,
	"webp": models.FormatWebP,
	"svg":  models.FormatSVG,
	"bmp":  models.FormatBMP,
	"ico":  models.FormatICO,
}

// ClassifyFormat maps the trailing extension of a URL path to a format tag.
// Query and fragment are ignored so "a.png?v=2" is still PNG.
func ClassifyFormat(rawURL string) models.Format {
	path := rawURL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	dot := strings.LastIndex(path, ".")
	if dot < 0 || dot < strings.LastIndex(path, "/") {
		return models.FormatUnknown
	}
	if format, ok := extensionFormats[strings.ToLower(path[dot+1:])]; ok {
		return format
	}
	return models.FormatUnknown
}

// formatFromContentType maps an image MIME type to a format tag
func formatFromContentType(contentType string) models.Format {
	ct := strings.ToLower(contentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	switch strings.TrimSpace(ct) {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return models.FormatJPEG
	case "image/png":
		return models.FormatPNG
	case "image/gif":
		return models.FormatGIF
	case "image/webp":
		return models.FormatWebP
	case "image/svg+xml":
		return models.FormatSVG
	case "image/bmp", "image/x-ms-bmp":
		return models.FormatBMP
	case "image/x-icon", "image/vnd.microsoft.icon":
		return models.FormatICO
	}
	return models.FormatUnknown
}
