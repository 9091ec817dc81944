// Package scraper provides browser configuration options for Chrome automation.
package scraper

import (
	"os"
	"strings"

	"image-extract-scraper/internal/config"

	"github.com/chromedp/chromedp"
)

// BrowserOptions contains configuration for browser automation
type BrowserOptions struct {
	WindowWidth  int
	WindowHeight int
	UserAgent    string
	ChromePath   string
	Headless     bool
}

// wellKnownChromePaths are checked when no binary is configured
var wellKnownChromePaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// BrowserOptionsFromConfig returns headless options sized for lazy-loading discovery
func BrowserOptionsFromConfig(cfg config.BrowserConfig, userAgent string) BrowserOptions {
	return BrowserOptions{
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		UserAgent:    userAgent,
		ChromePath:   ResolveChromePath(cfg.ChromePath),
		Headless:     true,
	}
}

// ResolveChromePath returns the configured binary, or the first well-known path that exists.
// An empty result lets chromedp search PATH itself.
func ResolveChromePath(configured string) string {
	if configured != "" {
		return configured
	}
	for _, p := range wellKnownChromePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// BuildChromeOptions creates Chrome options based on BrowserOptions
func BuildChromeOptions(opts BrowserOptions) []chromedp.ExecAllocatorOption {
	chromeOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-accelerated-2d-canvas", true),
		chromedp.Flag("no-first-run", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)

	if opts.UserAgent != "" {
		chromeOpts = append(chromeOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ChromePath != "" {
		chromeOpts = append(chromeOpts, chromedp.ExecPath(opts.ChromePath))
	}

	return chromeOpts
}

// BlockedURLPatterns turns blocked domain fragments into CDP URL patterns
func BlockedURLPatterns(domains []string) []string {
	patterns := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		patterns = append(patterns, "*"+d+"*")
	}
	return patterns
}
