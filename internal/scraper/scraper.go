// Package scraper discovers the images a web page references and estimates how much
// a transform service could save on each. Pages are retrieved through an ordered chain
// of strategies: a headless browser, a direct fetch, CORS relays and a script fetch.
package scraper

import (
	"context"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"

	"github.com/rs/zerolog/log"
)

// Scraper wires retrieval, discovery and size analysis together
type Scraper struct {
	cfg        *config.Config
	httpClient *HTTPClient
	launcher   BrowserLauncher
	scanner    *Scanner
	resolver   *Resolver
	analyzer   *Analyzer
}

// Option customizes a Scraper
type Option func(*Scraper)

// WithLauncher replaces the Chrome launcher, typically with a fake in tests
func WithLauncher(l BrowserLauncher) Option {
	return func(s *Scraper) { s.launcher = l }
}

func NewScraper(cfg *config.Config, opts ...Option) *Scraper {
	client := NewHTTPClient(cfg.Scrape)
	resolver := NewResolver(client, cfg)
	s := &Scraper{
		cfg:        cfg,
		httpClient: client,
		launcher:   NewChromeLauncher(cfg.Browser, cfg.Scrape.UserAgent),
		scanner:    NewScanner(),
		resolver:   resolver,
		analyzer:   NewAnalyzer(resolver, cfg.Size.MaxConcurrentImages),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildChain assembles the strategies for mode.
// prefer-rendered: rendered (with direct fallback), every relay, script fetch.
// prefer-simple: direct, then the first two relays.
func (s *Scraper) BuildChain(mode Mode) *Chain {
	st := s.cfg.Strategy
	direct := DirectStrategy(s.httpClient, st.DirectTimeout)

	var strategies []Strategy
	switch mode {
	case ModePreferRendered:
		strategies = append(strategies, RenderedStrategy(s.launcher, s.cfg.Browser, direct))
		for _, relay := range st.Relays {
			strategies = append(strategies, RelayStrategy(s.httpClient, relay, st.RelayTimeout))
		}
		strategies = append(strategies, ScriptStrategy(s.httpClient, st.ScriptTimeout))
	default:
		strategies = append(strategies, direct)
		for i, relay := range st.Relays {
			if i == 2 {
				break
			}
			strategies = append(strategies, RelayStrategy(s.httpClient, relay, st.RelayTimeout))
		}
	}
	return NewChain(s.scanner, strategies...)
}

// Extract retrieves target and returns every image it references. The URL is validated
// before any network activity; when every strategy fails the error is *models.ExhaustionError.
func (s *Scraper) Extract(ctx context.Context, target string, useRendered bool) (models.ExtractResult, error) {
	if _, err := ValidateTargetURL(target); err != nil {
		return models.ExtractResult{Images: []models.ImageDescriptor{}}, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ExtractTimeout)
		defer cancel()
	}

	mode := ModePreferSimple
	if useRendered {
		mode = ModePreferRendered
	}
	chain := s.BuildChain(mode)
	log.Info().Str("target", target).Str("mode", string(mode)).Strs("strategies", chain.Names()).Msg("extraction started")

	res, err := chain.Run(ctx, target)
	if err != nil {
		return models.ExtractResult{Images: []models.ImageDescriptor{}}, err
	}

	return models.ExtractResult{
		Images:       res.Images,
		Count:        len(res.Images),
		FallbackUsed: res.Outcome.FallbackUsed,
		Strategy:     res.Strategy,
		Failures:     res.Failures,
		Page:         Summarize(res.Outcome.Doc, res.Outcome.HTML, res.Outcome.BaseURL),
	}, nil
}

// ImageInfo resolves the size of a single image. It never fails; unknown sizes are labeled.
func (s *Scraper) ImageInfo(ctx context.Context, imageURL string) models.SizeInfo {
	return s.resolver.ResolveOriginal(ctx, imageURL)
}

// OptimizedURL returns the transform-service URL for an image
func (s *Scraper) OptimizedURL(imageURL string) string {
	return s.resolver.OptimizedURL(imageURL)
}

// Analyze extracts the images of target and reports original and optimized sizes for each
func (s *Scraper) Analyze(ctx context.Context, target string, useRendered bool) (models.AnalysisResult, error) {
	extracted, err := s.Extract(ctx, target, useRendered)
	if err != nil {
		return models.AnalysisResult{ExtractResult: extracted, Reports: []models.ImageReport{}}, err
	}
	return models.AnalysisResult{
		ExtractResult: extracted,
		Reports:       s.analyzer.Report(ctx, extracted.Images),
	}, nil
}
