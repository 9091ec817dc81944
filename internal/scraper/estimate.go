package scraper

import (
	"math"
	"strconv"
	"strings"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

var unitMultipliers = map[string]float64{
	"BYTES": 1,
	"KB":    1024,
	"MB":    1024 * 1024,
	"GB":    1024 * 1024 * 1024,
}

// FormatFileSize renders a byte count like "1.5 MB", trimming trailing zeros
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}

var sizeStringRegex = config.CompileRegexes()["sizeString"]

// ParseSize converts "512 KB" to bytes. Labels starting with "~" or "Unknown" have no numeric size.
func ParseSize(size string) (int64, bool) {
	trimmed := strings.TrimSpace(size)
	if trimmed == "" || strings.HasPrefix(trimmed, "~") || strings.HasPrefix(strings.ToLower(trimmed), "unknown") {
		return 0, false
	}
	m := sizeStringRegex.FindStringSubmatch(trimmed)
	if len(m) != 3 {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return int64(math.Round(value * unitMultipliers[strings.ToUpper(m[2])])), true
}

// Estimator turns pixel dimensions into a byte estimate using per-format multipliers
type Estimator struct {
	cfg config.EstimationConfig
}

func NewEstimator(cfg config.EstimationConfig) Estimator {
	return Estimator{cfg: cfg}
}

// BytesPerPixel returns the multiplier for a format, or the default
func (e Estimator) BytesPerPixel(format models.Format) float64 {
	for name, bpp := range e.cfg.BytesPerPixel {
		if strings.EqualFold(name, string(format)) {
			return bpp
		}
	}
	return e.cfg.DefaultBytesPerPixel
}

// Estimate returns width × height × bytes-per-pixel, rounded to whole bytes
func (e Estimator) Estimate(width, height int, format models.Format) int64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	return int64(math.Round(float64(width) * float64(height) * e.BytesPerPixel(format)))
}

// OptimizedFormat is the format the transform service is assumed to emit
func (e Estimator) OptimizedFormat() models.Format {
	if e.cfg.OptimizedFormat == "" {
		return models.FormatWebP
	}
	return models.Format(e.cfg.OptimizedFormat)
}

// VectorLabel is the fixed size label for vector images
func (e Estimator) VectorLabel() string {
	return e.cfg.VectorLabel
}
