// Package models defines typed errors for better error handling and context.
package models

import (
	"fmt"
	"strings"
)

// CloudflareBlockError represents a Cloudflare blocking error
type CloudflareBlockError struct {
	Domain string
	Err    error
}

func (e *CloudflareBlockError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("blocked by site protection on domain %s", e.Domain)
	}
	return fmt.Sprintf("blocked by site protection on domain %s: %v", e.Domain, e.Err)
}

func (e *CloudflareBlockError) Unwrap() error { return e.Err }

// TimeoutError represents a timeout error
type TimeoutError struct {
	Operation string
	Timeout   string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout during %s after %s: %v", e.Operation, e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// InvalidURLError represents a target URL rejected before any network activity
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// HTTPError represents a non-2xx HTTP response
type HTTPError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("HTTP %d for URL %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d for URL %s: %v", e.StatusCode, e.URL, e.Err)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// TransportError is a failed network exchange. Always recoverable by the next strategy.
type TransportError struct {
	Strategy string
	URL      string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport failed for %s: %v", e.Strategy, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is malformed markup or JSON in one discovery source
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RenderError is a browser launch, navigation or crash failure.
// FallbackErr is set when the non-rendered fallback failed too.
type RenderError struct {
	Step        string
	Err         error
	FallbackErr error
}

func (e *RenderError) Error() string {
	if e.FallbackErr != nil {
		return fmt.Sprintf("rendered acquisition failed at %s: %v; fallback fetch failed: %v", e.Step, e.Err, e.FallbackErr)
	}
	return fmt.Sprintf("rendered acquisition failed at %s: %v", e.Step, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// StrategyFailure is one recorded reason in an exhausted chain
type StrategyFailure struct {
	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
}

// ExhaustionError means every retrieval strategy ran and none produced images
type ExhaustionError struct {
	Target   string
	Failures []StrategyFailure
}

func (e *ExhaustionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all %d strategies failed for %s", len(e.Failures), e.Target)
	for i, f := range e.Failures {
		fmt.Fprintf(&b, "; %d) %s: %s", i+1, f.Strategy, f.Reason)
	}
	return b.String()
}

// Reasons returns the failure reasons in chain order
func (e *ExhaustionError) Reasons() []string {
	reasons := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		reasons = append(reasons, f.Strategy+": "+f.Reason)
	}
	return reasons
}
