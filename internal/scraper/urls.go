package scraper

import (
	"errors"
	"net/url"
	"strings"

	"image-extract-scraper/internal/models"
)

// NormalizeImageURL resolves an image reference against the page URL.
// The second result is false when the reference must be discarded.
func NormalizeImageURL(ref, base string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	if strings.HasPrefix(ref, "//") {
		return "https:" + ref, true
	}

	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref, true
	}

	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return "", false
	}
	origin := baseURL.Scheme + "://" + baseURL.Host

	if strings.HasPrefix(ref, "/") {
		return origin + ref, true
	}

	// data:, blob:, javascript: and friends never name a fetchable image
	if hasNonHTTPScheme(ref) {
		return "", false
	}

	return origin + "/" + strings.TrimLeft(ref, "/"), true
}

func hasNonHTTPScheme(ref string) bool {
	colon := strings.Index(ref, ":")
	if colon <= 0 {
		return false
	}
	if slash := strings.IndexAny(ref, "/?#"); slash >= 0 && slash < colon {
		return false
	}
	for i, r := range ref[:colon] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// ValidateTargetURL checks a caller-supplied page URL before any network activity
func ValidateTargetURL(target string) (*url.URL, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, &models.InvalidURLError{URL: target, Err: errors.New("empty URL")}
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, &models.InvalidURLError{URL: target, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &models.InvalidURLError{URL: target, Err: errors.New("scheme must be http or https")}
	}
	if u.Host == "" {
		return nil, &models.InvalidURLError{URL: target, Err: errors.New("missing host")}
	}
	return u, nil
}
