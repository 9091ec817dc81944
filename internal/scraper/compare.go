package scraper

import (
	"math"
	"strings"

	"image-extract-scraper/internal/models"
)

// ComputeReduction compares an original and an optimized size. Either side without
// a numeric size, or an original of zero bytes, gives a nil percentage and neutral bucket.
func ComputeReduction(original, optimized models.SizeInfo) models.ComparisonResult {
	if !original.Known() || !optimized.Known() {
		return neutralResult()
	}
	return reduce(*original.Bytes, *optimized.Bytes, confidenceOf(original.IsEstimated, optimized.IsEstimated))
}

// ComputeReductionFromSizes compares two size labels such as "1 MB" and "512 KB"
func ComputeReductionFromSizes(original, optimized string) models.ComparisonResult {
	o, ok := ParseSize(original)
	if !ok {
		return neutralResult()
	}
	t, ok := ParseSize(optimized)
	if !ok {
		return neutralResult()
	}
	return reduce(o, t, confidenceOf(isEstimatedLabel(original), isEstimatedLabel(optimized)))
}

// BucketFor maps a rounded percentage to its bucket. Negative values are poor, never neutral.
func BucketFor(percent int) models.Bucket {
	switch {
	case percent >= 70:
		return models.BucketExcellent
	case percent >= 50:
		return models.BucketGood
	case percent >= 30:
		return models.BucketModerate
	case percent >= 10:
		return models.BucketMinimal
	default:
		return models.BucketPoor
	}
}

func reduce(original, optimized int64, confidence models.Confidence) models.ComparisonResult {
	if original <= 0 || optimized < 0 {
		return neutralResult()
	}
	ratio := (float64(original) - float64(optimized)) / float64(original) * 100
	// half rounds toward +Inf, so -49.5 becomes -49
	percent := int(math.Floor(ratio + 0.5))
	return models.ComparisonResult{
		PercentReduction: &percent,
		Bucket:           BucketFor(percent),
		Confidence:       confidence,
	}
}

func neutralResult() models.ComparisonResult {
	return models.ComparisonResult{
		Bucket:     models.BucketNeutral,
		Confidence: models.ConfidenceUnknown,
	}
}

func confidenceOf(originalEstimated, optimizedEstimated bool) models.Confidence {
	switch {
	case originalEstimated && optimizedEstimated:
		return models.ConfidenceEstimated
	case originalEstimated || optimizedEstimated:
		return models.ConfidenceMixed
	default:
		return models.ConfidenceMeasured
	}
}

func isEstimatedLabel(size string) bool {
	return strings.Contains(strings.ToLower(size), "(estimated)")
}
