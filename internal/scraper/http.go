package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/net/html/charset"
)

const (
	acceptHTML   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptScript = "*/*"
	acceptImage  = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
)

type HTTPClient struct {
	client  *http.Client
	config  config.ScrapeConfig
	regexes map[string]*regexp.Regexp
}

// HeadResult is what a header-only request reported. ContentLength is -1 when absent.
type HeadResult struct {
	ContentLength int64
	ContentType   string
}

// ProbeResult is what the first bytes of an image revealed
type ProbeResult struct {
	Width       int
	Height      int
	Format      models.Format
	ContentType string
}

func NewHTTPClient(cfg config.ScrapeConfig) *HTTPClient {
	// Configure HTTP client with connection pooling
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   time.Duration(cfg.TimeoutMs) * time.Millisecond,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPClient{
		client:  client,
		config:  cfg,
		regexes: config.CompileRegexes(),
	}
}

// setRequestHeaders sets browser-like headers on the request
func (h *HTTPClient) setRequestHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// fetchOptions selects headers and checks for one GET
type fetchOptions struct {
	accept      string
	requireHTML bool
	headers     map[string]string
}

// retryWithBackoff waits 1s, 2s, ... (capped at 5s) before the next attempt
func (h *HTTPClient) retryWithBackoff(ctx context.Context, targetURL string, opts fetchOptions, retryCount int, lastErr error) (string, error) {
	if retryCount >= h.config.MaxRetries {
		return "", lastErr
	}

	delay := time.Duration(1000*(1<<retryCount)) * time.Millisecond
	if delay > 5*time.Second {
		delay = 5 * time.Second
	}

	select {
	case <-ctx.Done():
		return "", lastErr
	case <-time.After(delay):
	}
	return h.fetch(ctx, targetURL, opts, retryCount+1)
}

// FetchHTML fetches an HTML page. Non-HTML content types are rejected.
func (h *HTTPClient) FetchHTML(ctx context.Context, targetURL string) (string, error) {
	return h.fetch(ctx, targetURL, fetchOptions{accept: acceptHTML, requireHTML: true}, 0)
}

// FetchVia fetches a page through an intermediary that may rewrite content types
func (h *HTTPClient) FetchVia(ctx context.Context, targetURL string, headers map[string]string) (string, error) {
	return h.fetch(ctx, targetURL, fetchOptions{accept: acceptHTML, headers: headers}, 0)
}

// FetchAny fetches a document the way a script tag would, with no content-type requirement
func (h *HTTPClient) FetchAny(ctx context.Context, targetURL string) (string, error) {
	return h.fetch(ctx, targetURL, fetchOptions{accept: acceptScript}, 0)
}

func (h *HTTPClient) fetch(ctx context.Context, targetURL string, opts fetchOptions, retryCount int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	h.setRequestHeaders(req, opts.accept)
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return "", classifyRequestError(ctx, "GET", start, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return h.retryWithBackoff(ctx, targetURL, opts, retryCount,
			&models.HTTPError{StatusCode: resp.StatusCode, URL: targetURL})
	}
	if resp.StatusCode >= 400 {
		return "", &models.HTTPError{StatusCode: resp.StatusCode, URL: targetURL}
	}

	contentType := resp.Header.Get("Content-Type")
	if opts.requireHTML && !strings.Contains(strings.ToLower(contentType), "text/html") {
		return "", fmt.Errorf("non-HTML content-type: %q", contentType)
	}

	reader := io.LimitReader(resp.Body, int64(h.config.SizeLimitBytes))
	decoded, err := charset.NewReader(reader, contentType)
	if err != nil {
		decoded = reader
	}
	body, err := io.ReadAll(decoded)
	if err != nil {
		return "", classifyRequestError(ctx, "read body", start, err)
	}
	return string(body), nil
}

// Head issues a header-only request bounded by timeout
func (h *HTTPClient) Head(ctx context.Context, targetURL string, timeout time.Duration) (HeadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return HeadResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	h.setRequestHeaders(req, acceptImage)

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return HeadResult{}, classifyRequestError(ctx, "HEAD", start, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return HeadResult{}, &models.HTTPError{StatusCode: resp.StatusCode, URL: targetURL}
	}

	length := resp.ContentLength
	if length < 0 {
		if v, err := strconv.ParseInt(strings.TrimSpace(resp.Header.Get("Content-Length")), 10, 64); err == nil && v >= 0 {
			length = v
		}
	}

	return HeadResult{
		ContentLength: length,
		ContentType:   resp.Header.Get("Content-Type"),
	}, nil
}

// ProbeImage reads at most limit bytes of an image and decodes its dimensions
func (h *HTTPClient) ProbeImage(ctx context.Context, targetURL string, timeout time.Duration, limit int64) (ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	h.setRequestHeaders(req, acceptImage)

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return ProbeResult{}, classifyRequestError(ctx, "probe", start, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ProbeResult{}, &models.HTTPError{StatusCode: resp.StatusCode, URL: targetURL}
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil && len(head) == 0 {
		return ProbeResult{}, classifyRequestError(ctx, "probe read", start, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
			contentType = kind.MIME.Value
		}
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil {
		return ProbeResult{ContentType: contentType, Format: formatFromContentType(contentType)},
			&models.ParseError{Source: "image header", Err: err}
	}

	return ProbeResult{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      formatFromDecoder(name),
		ContentType: contentType,
	}, nil
}

// LooksLikeCFBlock checks if HTML content indicates Cloudflare blocking
func (h *HTTPClient) LooksLikeCFBlock(html string) bool {
	return h.regexes["cfBlock"].MatchString(strings.ToLower(html))
}

// classifyRequestError turns deadline hits into TimeoutError so callers can tell them apart
func classifyRequestError(ctx context.Context, op string, start time.Time, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &models.TimeoutError{
			Operation: op,
			Timeout:   time.Since(start).Round(time.Millisecond).String(),
			Err:       context.DeadlineExceeded,
		}
	}
	return fmt.Errorf("%s request failed: %w", op, err)
}

func formatFromDecoder(name string) models.Format {
	switch name {
	case "jpeg":
		return models.FormatJPEG
	case "png":
		return models.FormatPNG
	case "gif":
		return models.FormatGIF
	case "webp":
		return models.FormatWebP
	case "bmp":
		return models.FormatBMP
	}
	return models.FormatUnknown
}
