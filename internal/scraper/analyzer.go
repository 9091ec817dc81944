package scraper

import (
	"context"
	"time"

	"image-extract-scraper/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Analyzer sizes discovered images and compares each with its transformed counterpart
type Analyzer struct {
	resolver *Resolver
	limit    int
}

func NewAnalyzer(resolver *Resolver, limit int) *Analyzer {
	if limit < 1 {
		limit = 1
	}
	return &Analyzer{resolver: resolver, limit: limit}
}

// Report builds one report per image, in input order. Per-image failures degrade to
// unknown sizes and a neutral comparison, so the result always has len(images) entries.
func (a *Analyzer) Report(ctx context.Context, images []models.ImageDescriptor) []models.ImageReport {
	reports := make([]models.ImageReport, len(images))

	g := new(errgroup.Group)
	g.SetLimit(a.limit)
	for i, img := range images {
		g.Go(func() error {
			reports[i] = a.reportOne(ctx, img)
			return nil
		})
	}
	_ = g.Wait()

	return reports
}

// reportOne looks up the original and optimized sizes concurrently and joins them for comparison
func (a *Analyzer) reportOne(ctx context.Context, img models.ImageDescriptor) models.ImageReport {
	start := time.Now()
	var (
		original     models.SizeInfo
		optimized    models.SizeInfo
		optimizedURL string
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		original = a.resolver.ResolveOriginal(ctx, img.URL)
		return nil
	})
	g.Go(func() error {
		optimizedURL, optimized = a.resolver.ResolveOptimized(ctx, img.URL)
		return nil
	})
	_ = g.Wait()

	comparison := ComputeReduction(original, optimized)
	log.Debug().Str("image", img.URL).Str("original", original.Size).Str("optimized", optimized.Size).
		Str("bucket", string(comparison.Bucket)).Dur("duration", time.Since(start)).Msg("image analyzed")

	return models.ImageReport{
		Image:        img,
		OptimizedURL: optimizedURL,
		Original:     original,
		Optimized:    optimized,
		Comparison:   comparison,
	}
}
