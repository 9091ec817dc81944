package scraper

import (
	"testing"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"
)

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		0:                      "0 Bytes",
		500:                    "500 Bytes",
		1024:                   "1 KB",
		1536:                   "1.5 KB",
		40000:                  "39.06 KB",
		1024 * 1024:            "1 MB",
		5 * 1024 * 1024 * 1024: "5 GB",
	}
	for in, want := range tests {
		if got := FormatFileSize(in); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"1 MB", 1024 * 1024, true},
		{"512 KB", 512 * 1024, true},
		{"0 Bytes", 0, true},
		{"1.5 mb", 1572864, true},
		{"39.06 KB (estimated)", 39997, true},
		{"~10-50 KB", 0, false},
		{"Unknown", 0, false},
		{"Unknown (CORS restricted)", 0, false},
		{"", 0, false},
		{"lots", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseSize(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseSize(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestEstimate(t *testing.T) {
	e := NewEstimator(config.Default().Estimation)

	tests := []struct {
		format models.Format
		want   int64
	}{
		{models.FormatPNG, 40000},
		{models.FormatJPEG, 5000},
		{models.FormatWebP, 4000},
		{models.FormatGIF, 10000},
		{models.FormatBMP, 30000},
		{models.FormatUnknown, 30000},
	}
	for _, tt := range tests {
		if got := e.Estimate(100, 100, tt.format); got != tt.want {
			t.Errorf("Estimate(100, 100, %s) = %d, want %d", tt.format, got, tt.want)
		}
	}
	if got := e.Estimate(0, 100, models.FormatPNG); got != 0 {
		t.Errorf("zero width estimate = %d", got)
	}
	if e.OptimizedFormat() != models.FormatWebP {
		t.Errorf("optimized format = %s", e.OptimizedFormat())
	}
	if e.VectorLabel() != "~10-50 KB" {
		t.Errorf("vector label = %q", e.VectorLabel())
	}
}
