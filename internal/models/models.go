package models

import "time"

// Format is a canonical image format tag derived from a URL extension
type Format string

const (
	FormatJPEG    Format = "JPEG"
	FormatPNG     Format = "PNG"
	FormatGIF     Format = "GIF"
	FormatWebP    Format = "WebP"
	FormatSVG     Format = "SVG"
	FormatBMP     Format = "BMP"
	FormatICO     Format = "ICO"
	FormatUnknown Format = "Unknown"
)

const (
	UnknownDimension = "Unknown"
	DefaultAltText   = "No alt text"
)

// ImageDescriptor is one discovered image. URL is absolute and unique within a scan.
type ImageDescriptor struct {
	URL    string `json:"url"`
	Width  string `json:"width"`
	Height string `json:"height"`
	Alt    string `json:"alt"`
	Format Format `json:"format"`
}

// SizeInfo is the resolved size of one image. Bytes is nil when the size is unknown.
type SizeInfo struct {
	Bytes       *int64 `json:"bytes"`
	Size        string `json:"size"`
	IsEstimated bool   `json:"isEstimated"`
	IsOptimized bool   `json:"isOptimized"`
	Format      string `json:"format"`
	ContentType string `json:"contentType"`
	Source      string `json:"source"`
}

// Known reports whether a numeric size is available
func (s SizeInfo) Known() bool {
	return s.Bytes != nil && *s.Bytes >= 0
}

// Bucket is the qualitative verdict of a comparison
type Bucket string

const (
	BucketExcellent Bucket = "excellent"
	BucketGood      Bucket = "good"
	BucketModerate  Bucket = "moderate"
	BucketMinimal   Bucket = "minimal"
	BucketPoor      Bucket = "poor"
	BucketNeutral   Bucket = "neutral"
)

// Confidence says whether a comparison rests on measured or estimated sizes
type Confidence string

const (
	ConfidenceMeasured  Confidence = "measured"
	ConfidenceMixed     Confidence = "mixed"
	ConfidenceEstimated Confidence = "estimated"
	ConfidenceUnknown   Confidence = "unknown"
)

// ComparisonResult is the reduction verdict. PercentReduction is nil exactly when Bucket is neutral.
type ComparisonResult struct {
	PercentReduction *int       `json:"percentReduction"`
	Bucket           Bucket     `json:"bucket"`
	Confidence       Confidence `json:"confidence"`
}

// PageSummary carries page-level metadata gathered alongside the images
type PageSummary struct {
	Title     string `json:"title,omitempty"`
	SiteName  string `json:"siteName,omitempty"`
	LeadImage string `json:"leadImage,omitempty"`
	Favicon   string `json:"favicon,omitempty"`
}

// ExtractResult is the outcome of a successful extraction
type ExtractResult struct {
	Images       []ImageDescriptor `json:"images"`
	Count        int               `json:"count"`
	FallbackUsed bool              `json:"fallbackUsed"`
	Strategy     string            `json:"strategy"`
	Failures     []StrategyFailure `json:"failures,omitempty"`
	Page         PageSummary       `json:"page"`
}

// ImageReport pairs one image with its original and optimized sizes
type ImageReport struct {
	Image        ImageDescriptor  `json:"image"`
	OptimizedURL string           `json:"optimizedUrl"`
	Original     SizeInfo         `json:"original"`
	Optimized    SizeInfo         `json:"optimized"`
	Comparison   ComparisonResult `json:"comparison"`
}

// AnalysisResult is an extraction plus a report per image
type AnalysisResult struct {
	ExtractResult
	Reports []ImageReport `json:"reports"`
}

// ExtractResponse is the JSON body of a successful extraction call
type ExtractResponse struct {
	Success      bool              `json:"success"`
	Images       []ImageDescriptor `json:"images"`
	Count        int               `json:"count"`
	FallbackUsed bool              `json:"fallbackUsed"`
	Strategy     string            `json:"strategy"`
	Failures     []StrategyFailure `json:"failures,omitempty"`
	Page         PageSummary       `json:"page"`
	Metadata     Metadata          `json:"metadata"`
}

// AnalyzeResponse is the JSON body of a successful analysis call
type AnalyzeResponse struct {
	Success      bool              `json:"success"`
	Reports      []ImageReport     `json:"reports"`
	Count        int               `json:"count"`
	FallbackUsed bool              `json:"fallbackUsed"`
	Strategy     string            `json:"strategy"`
	Failures     []StrategyFailure `json:"failures,omitempty"`
	Page         PageSummary       `json:"page"`
	Metadata     Metadata          `json:"metadata"`
}

// ErrorResponse represents error responses
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Metadata contains request metadata
type Metadata struct {
	URL        string    `json:"url"`
	RequestID  string    `json:"requestId,omitempty"`
	ScrapedAt  time.Time `json:"scrapedAt"`
	DurationMs int64     `json:"durationMs"`
}

// ImageInfoResponse is the JSON body of a single image lookup
type ImageInfoResponse struct {
	Success bool `json:"success"`
	SizeInfo
	OptimizedURL string   `json:"optimizedUrl"`
	Metadata     Metadata `json:"metadata"`
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
