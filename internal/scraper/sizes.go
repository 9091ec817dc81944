package scraper

import (
	"context"
	"errors"
	"time"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Resolver discovers image sizes through header requests, falling back to
// a dimension-based estimate.
type Resolver struct {
	http      *HTTPClient
	cfg       config.SizeConfig
	relays    []config.RelayConfig
	estimator Estimator
	relayGate *semaphore.Weighted
}

func NewResolver(client *HTTPClient, cfg *config.Config) *Resolver {
	relays := cfg.Strategy.Relays
	if cfg.Size.HeadRelays < len(relays) {
		relays = relays[:cfg.Size.HeadRelays]
	}
	return &Resolver{
		http:      client,
		cfg:       cfg.Size,
		relays:    relays,
		estimator: NewEstimator(cfg.Estimation),
		relayGate: semaphore.NewWeighted(int64(cfg.Size.MaxConcurrentRelays)),
	}
}

// OptimizedURL derives the transform-service URL for an image
func (r *Resolver) OptimizedURL(imageURL string) string {
	return TransformURL(r.cfg.TransformTemplate, imageURL)
}

// ResolveOriginal sizes an image as served by its host
func (r *Resolver) ResolveOriginal(ctx context.Context, imageURL string) models.SizeInfo {
	format := ClassifyFormat(imageURL)
	if info, ok := r.headAttempts(ctx, imageURL, format); ok {
		return info
	}

	probe, err := r.http.ProbeImage(ctx, imageURL, r.cfg.ProbeTimeout, r.cfg.ProbeLimitBytes)
	if format == models.FormatUnknown && probe.Format != "" {
		format = probe.Format
	}
	if format == models.FormatSVG && !isTransportFailure(err) {
		return models.SizeInfo{
			Size:        r.estimator.VectorLabel(),
			IsEstimated: true,
			Format:      string(format),
			ContentType: "Unknown (estimated)",
			Source:      SourceVector,
		}
	}
	if err == nil && probe.Width > 0 && probe.Height > 0 {
		bytes := r.estimator.Estimate(probe.Width, probe.Height, format)
		return models.SizeInfo{
			Bytes:       &bytes,
			Size:        FormatFileSize(bytes) + EstimatedSuffix,
			IsEstimated: true,
			Format:      string(format),
			ContentType: "Unknown (estimated)",
			Source:      SourceEstimate,
		}
	}
	log.Debug().Err(err).Str("image", imageURL).Msg("size probe failed")

	return models.SizeInfo{
		Size:        UnknownCORSSize,
		Format:      string(format),
		ContentType: UnknownSize,
		Source:      SourceNone,
	}
}

// ResolveOptimized sizes the transformed counterpart of an image. Estimates assume
// the transform service's output format.
func (r *Resolver) ResolveOptimized(ctx context.Context, imageURL string) (string, models.SizeInfo) {
	optimizedURL := r.OptimizedURL(imageURL)
	if info, ok := r.headAttempts(ctx, optimizedURL, ClassifyFormat(optimizedURL)); ok {
		info.IsOptimized = true
		return optimizedURL, info
	}

	outFormat := r.estimator.OptimizedFormat()
	probe, err := r.http.ProbeImage(ctx, optimizedURL, r.cfg.ProbeTimeout, r.cfg.ProbeLimitBytes)
	if err == nil && probe.Width > 0 && probe.Height > 0 {
		bytes := r.estimator.Estimate(probe.Width, probe.Height, outFormat)
		return optimizedURL, models.SizeInfo{
			Bytes:       &bytes,
			Size:        FormatFileSize(bytes) + EstimatedSuffix + OptimizedSuffix,
			IsEstimated: true,
			IsOptimized: true,
			Format:      string(outFormat) + OptimizedSuffix,
			ContentType: "Unknown (estimated)",
			Source:      SourceEstimate,
		}
	}
	log.Debug().Err(err).Str("image", optimizedURL).Msg("optimized size probe failed")

	return optimizedURL, models.SizeInfo{
		Size:        UnknownSize,
		IsOptimized: true,
		Format:      string(ClassifyFormat(optimizedURL)),
		ContentType: UnknownSize,
		Source:      SourceNone,
	}
}

// headAttempts tries a direct HEAD, then each relay, stopping at the first reported length
func (r *Resolver) headAttempts(ctx context.Context, target string, format models.Format) (models.SizeInfo, bool) {
	if info, ok := r.headOnce(ctx, StrategyDirect, target, r.cfg.HeadTimeout, format); ok {
		return info, true
	}

	for _, relay := range r.relays {
		if err := r.relayGate.Acquire(ctx, 1); err != nil {
			return models.SizeInfo{}, false
		}
		info, ok := r.headOnce(ctx, relay.Name, TransformURL(relay.Template, target), r.cfg.RelayHeadTimeout, format)
		r.relayGate.Release(1)
		if ok {
			return info, true
		}
	}
	return models.SizeInfo{}, false
}

func (r *Resolver) headOnce(ctx context.Context, via, target string, timeout time.Duration, format models.Format) (models.SizeInfo, bool) {
	res, err := r.http.Head(ctx, target, timeout)
	if err != nil {
		log.Debug().Err(err).Str("via", via).Str("image", target).Msg("head request failed")
		return models.SizeInfo{}, false
	}
	if res.ContentLength < 0 {
		log.Debug().Str("via", via).Str("image", target).Msg("head response has no length")
		return models.SizeInfo{}, false
	}

	if format == models.FormatUnknown {
		format = formatFromContentType(res.ContentType)
	}
	contentType := res.ContentType
	if contentType == "" {
		contentType = UnknownSize
	}
	bytes := res.ContentLength
	return models.SizeInfo{
		Bytes:       &bytes,
		Size:        FormatFileSize(bytes),
		Format:      string(format),
		ContentType: contentType,
		Source:      SourceHead + ":" + via,
	}, true
}

// isTransportFailure is true when the probe never got a response body
func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	var parseErr *models.ParseError
	return !errors.As(err, &parseErr)
}
