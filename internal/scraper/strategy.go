package scraper

import (
	"context"
	"net/url"
	"time"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"

	"github.com/rs/zerolog/log"
)

const maxReasonLen = 300

// Mode selects the strategy set of a chain
type Mode string

const (
	ModePreferRendered Mode = "prefer-rendered"
	ModePreferSimple   Mode = "prefer-simple"
)

// Outcome is a successful retrieval: a document plus the page URL its references resolve against
type Outcome struct {
	Doc          Document
	HTML         string
	BaseURL      string
	FallbackUsed bool
}

// Strategy is one way of acquiring a document. A non-nil error is a recorded failure, never fatal.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, target string) (Outcome, error)
}

// ChainResult is the first strategy that produced images
type ChainResult struct {
	Strategy string
	Outcome  Outcome
	Images   []models.ImageDescriptor
	// Failures of the strategies tried before the winning one
	Failures []models.StrategyFailure
}

// Chain tries strategies strictly in order until one yields a non-empty image set
type Chain struct {
	strategies []Strategy
	scanner    *Scanner
}

func NewChain(scanner *Scanner, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, scanner: scanner}
}

// Names lists the strategies in the order they run
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name)
	}
	return names
}

// Run executes the chain. When every strategy fails it returns *models.ExhaustionError
// carrying each failure reason in order, and no images.
func (c *Chain) Run(ctx context.Context, target string) (ChainResult, error) {
	var failures []models.StrategyFailure

	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			failures = append(failures, models.StrategyFailure{Strategy: strategy.Name, Reason: "skipped: " + err.Error()})
			continue
		}

		start := time.Now()
		logger := log.With().Str("strategy", strategy.Name).Str("target", target).Logger()

		outcome, err := strategy.Run(ctx, target)
		if err != nil {
			logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("strategy failed")
			failures = append(failures, models.StrategyFailure{Strategy: strategy.Name, Reason: truncate(err.Error(), maxReasonLen)})
			continue
		}

		images := c.scanner.Scan(outcome.Doc, outcome.BaseURL)
		if len(images) == 0 {
			logger.Info().Dur("duration", time.Since(start)).Msg("strategy found no images")
			failures = append(failures, models.StrategyFailure{Strategy: strategy.Name, Reason: ReasonNoImages})
			continue
		}

		logger.Info().Int("images", len(images)).Bool("fallback", outcome.FallbackUsed).
			Dur("duration", time.Since(start)).Msg("strategy succeeded")
		return ChainResult{
			Strategy: strategy.Name,
			Outcome:  outcome,
			Images:   images,
			Failures: failures,
		}, nil
	}

	return ChainResult{}, &models.ExhaustionError{Target: target, Failures: failures}
}

// fetchStrategy builds a transport+parse strategy. Direct fetch, relays and the script
// fetch differ only in the URL they request and the fetch call used.
func fetchStrategy(name string, client *HTTPClient, timeout time.Duration, urlFor func(string) string,
	fetch func(ctx context.Context, u string) (string, error)) Strategy {
	return Strategy{
		Name: name,
		Run: func(ctx context.Context, target string) (Outcome, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			requestURL := urlFor(target)
			body, err := fetch(ctx, requestURL)
			if err != nil {
				if IsCloudflareBlock(err) {
					err = &models.CloudflareBlockError{Domain: hostOf(target), Err: err}
				}
				return Outcome{}, &models.TransportError{Strategy: name, URL: requestURL, Err: err}
			}
			if client.LooksLikeCFBlock(body) {
				return Outcome{}, &models.TransportError{
					Strategy: name,
					URL:      requestURL,
					Err:      &models.CloudflareBlockError{Domain: hostOf(target)},
				}
			}

			doc, err := NewStaticDocument(body)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Doc: doc, HTML: body, BaseURL: target}, nil
		},
	}
}

// DirectStrategy fetches the page itself
func DirectStrategy(client *HTTPClient, timeout time.Duration) Strategy {
	return fetchStrategy(StrategyDirect, client, timeout, identity, client.FetchHTML)
}

// RelayStrategy fetches the page through a CORS relay
func RelayStrategy(client *HTTPClient, relay config.RelayConfig, timeout time.Duration) Strategy {
	return fetchStrategy(relay.Name, client, timeout,
		func(target string) string { return TransformURL(relay.Template, target) },
		func(ctx context.Context, u string) (string, error) { return client.FetchVia(ctx, u, relay.Headers) })
}

// ScriptStrategy is the last resort: a short fetch with script-tag semantics and no content-type check
func ScriptStrategy(client *HTTPClient, timeout time.Duration) Strategy {
	return fetchStrategy(StrategyScript, client, timeout, identity, client.FetchAny)
}

func identity(s string) string { return s }

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	return u.Hostname()
}
