package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	extractErr   error
	lastRendered *bool
	images       []models.ImageDescriptor
	failures     []models.StrategyFailure
	panicOn      string
}

func (f *fakeService) Extract(ctx context.Context, target string, useRendered bool) (models.ExtractResult, error) {
	if f.panicOn == target {
		panic(errors.New("boom"))
	}
	f.lastRendered = &useRendered
	if f.extractErr != nil {
		return models.ExtractResult{Images: []models.ImageDescriptor{}}, f.extractErr
	}
	return models.ExtractResult{
		Images:   f.images,
		Count:    len(f.images),
		Strategy: "direct",
		Failures: f.failures,
		Page:     models.PageSummary{Title: "Gallery"},
	}, nil
}

func (f *fakeService) Analyze(ctx context.Context, target string, useRendered bool) (models.AnalysisResult, error) {
	extracted, err := f.Extract(ctx, target, useRendered)
	if err != nil {
		return models.AnalysisResult{ExtractResult: extracted}, err
	}
	reports := make([]models.ImageReport, 0, len(extracted.Images))
	for _, img := range extracted.Images {
		reports = append(reports, models.ImageReport{Image: img, Comparison: models.ComparisonResult{Bucket: models.BucketNeutral}})
	}
	return models.AnalysisResult{ExtractResult: extracted, Reports: reports}, nil
}

func (f *fakeService) ImageInfo(ctx context.Context, imageURL string) models.SizeInfo {
	n := int64(2048)
	return models.SizeInfo{Bytes: &n, Size: "2 KB", Format: "PNG", ContentType: "image/png", Source: "head:direct"}
}

func (f *fakeService) OptimizedURL(imageURL string) string {
	return "https://t.example/" + url.QueryEscape(imageURL)
}

func serve(t *testing.T, svc Service, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(svc, config.ServerConfig{LogLevel: "info"})
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, &fakeService{}, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body.Status)
	assert.False(t, body.Timestamp.IsZero())
}

func TestExtractImages(t *testing.T) {
	svc := &fakeService{images: []models.ImageDescriptor{{URL: "https://x.com/a.png", Format: models.FormatPNG}}}
	rec := serve(t, svc, "/api/extract-images?url="+url.QueryEscape("https://x.com")+"&useBrowser=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "https://x.com/a.png", body.Images[0].URL)
	assert.Equal(t, "Gallery", body.Page.Title)
	assert.Equal(t, "https://x.com", body.Metadata.URL)
	assert.NotEmpty(t, body.Metadata.RequestID)
	assert.Equal(t, body.Metadata.RequestID, rec.Header().Get(RequestIDHeader))
	require.NotNil(t, svc.lastRendered)
	assert.False(t, *svc.lastRendered)
}

func TestExtractImagesReportsEarlierFailures(t *testing.T) {
	svc := &fakeService{
		images:   []models.ImageDescriptor{{URL: "https://x.com/a.png", Format: models.FormatPNG}},
		failures: []models.StrategyFailure{{Strategy: "rendered", Reason: "navigate: timeout"}},
	}
	rec := serve(t, svc, "/api/extract-images?url=https://x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Failures, 1)
	assert.Equal(t, "rendered", body.Failures[0].Strategy)
	assert.Equal(t, "navigate: timeout", body.Failures[0].Reason)

	rec = serve(t, svc, "/api/analyze?url=https://x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var analysis models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Len(t, analysis.Failures, 1)
}

func TestExtractImagesDefaultsToBrowser(t *testing.T) {
	svc := &fakeService{}
	rec := serve(t, svc, "/api/extract-images?url=https://x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastRendered)
	assert.True(t, *svc.lastRendered)
}

func TestExtractImagesMissingURL(t *testing.T) {
	rec := serve(t, &fakeService{}, "/api/extract-images", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "url")
}

func TestExtractImagesErrorMapping(t *testing.T) {
	exhausted := &models.ExhaustionError{
		Target: "https://x.com",
		Failures: []models.StrategyFailure{
			{Strategy: "direct", Reason: "HTTP 403"},
			{Strategy: "relay-allorigins", Reason: "no images found"},
		},
	}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid url", &models.InvalidURLError{URL: "ftp://x", Err: errors.New("scheme must be http or https")}, http.StatusBadRequest},
		{"exhausted", exhausted, http.StatusBadGateway},
		{"deadline", &models.TimeoutError{Operation: "GET", Timeout: "90s", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeService{extractErr: tt.err}, "/api/extract-images?url=https://x.com", nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := serve(t, &fakeService{extractErr: exhausted}, "/api/extract-images?url=https://x.com", nil)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"direct: HTTP 403", "relay-allorigins: no images found"}, body.Details)
}

func TestImageInfo(t *testing.T) {
	rec := serve(t, &fakeService{}, "/api/image-info?url="+url.QueryEscape("https://x.com/a.png"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.ImageInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "2 KB", body.Size)
	require.NotNil(t, body.Bytes)
	assert.EqualValues(t, 2048, *body.Bytes)
	assert.Contains(t, body.OptimizedURL, "https://t.example/")

	rec = serve(t, &fakeService{}, "/api/image-info?url=not-a-url", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze(t *testing.T) {
	svc := &fakeService{images: []models.ImageDescriptor{{URL: "https://x.com/a.png"}, {URL: "https://x.com/b.jpg"}}}
	rec := serve(t, svc, "/api/analyze?url=https://x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Reports, 2)
}

func TestRequestIDPropagates(t *testing.T) {
	rec := serve(t, &fakeService{}, "/health", http.Header{RequestIDHeader: []string{"req-123"}})
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestPanicsBecomeJSON(t *testing.T) {
	rec := serve(t, &fakeService{panicOn: "https://x.com/panic"}, "/api/extract-images?url=https://x.com/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "boom", body.Error)
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(&fakeService{}, config.ServerConfig{})
	req := httptest.NewRequest(http.MethodOptions, "/api/extract-images", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUseBrowser(t *testing.T) {
	assert.True(t, UseBrowser(""))
	assert.True(t, UseBrowser("true"))
	assert.True(t, UseBrowser("TRUE"))
	assert.False(t, UseBrowser("false"))
	assert.False(t, UseBrowser("yes"))
}
