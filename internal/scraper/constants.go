// Package scraper provides constants used throughout the scraping functionality.
package scraper

import "time"

// Timeout constants
const (
	// Overall budget for one extraction when the caller sets no deadline
	ExtractTimeout = 90 * time.Second
)

// Strategy names as they appear in failure reasons and results
const (
	StrategyDirect   = "direct"
	StrategyRendered = "rendered"
	StrategyScript   = "script-injection"
)

// Size sources reported in SizeInfo.Source
const (
	SourceHead     = "head"
	SourceEstimate = "estimate"
	SourceVector   = "vector"
	SourceNone     = "none"
)

// Size labels
const (
	UnknownSize     = "Unknown"
	UnknownCORSSize = "Unknown (CORS restricted)"
	EstimatedSuffix = " (estimated)"
	OptimizedSuffix = " (optimized)"
	ReasonNoImages  = "no images found"
)

// Text processing constants
const (
	SingleSpace = " "
)

// Browser configuration
const (
	MaxRedirects = 5
)

// Cloudflare detection patterns
var CloudflarePatterns = []string{
	"HTTP 403",
	"attention required",
	"cloudflare ray id",
	"what can i do to resolve this?",
	"why have i been blocked?",
	"performance & security by cloudflare",
	"blocked by site protection",
}
