package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"image-extract-scraper/internal/models"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct{}

func (stubService) Extract(ctx context.Context, target string, useRendered bool) (models.ExtractResult, error) {
	if target == "https://down.example" {
		return models.ExtractResult{}, &models.ExhaustionError{Target: target, Failures: []models.StrategyFailure{{Strategy: "direct", Reason: "HTTP 500"}}}
	}
	images := []models.ImageDescriptor{{URL: target + "/a.png"}}
	res := models.ExtractResult{Images: images, Count: 1, Strategy: "direct"}
	if target == "https://partial.example" {
		res.Strategy = "relay-allorigins"
		res.Failures = []models.StrategyFailure{{Strategy: "direct", Reason: "HTTP 403"}}
	}
	return res, nil
}

func (s stubService) Analyze(ctx context.Context, target string, useRendered bool) (models.AnalysisResult, error) {
	res, err := s.Extract(ctx, target, useRendered)
	if err != nil {
		return models.AnalysisResult{ExtractResult: res}, err
	}
	return models.AnalysisResult{ExtractResult: res, Reports: []models.ImageReport{{Image: res.Images[0]}}}, nil
}

func (stubService) ImageInfo(ctx context.Context, imageURL string) models.SizeInfo {
	return models.SizeInfo{Size: "Unknown (CORS restricted)"}
}

func (stubService) OptimizedURL(imageURL string) string { return "https://t.example/x" }

func request(path string, query map[string]string, headers map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: path, QueryStringParameters: query, Headers: headers}
}

func TestLambdaExtract(t *testing.T) {
	h := NewLambdaHandler(stubService{}, "")
	resp, err := h.Handler(context.Background(), request("/api/extract-images", map[string]string{"url": "https://x.com"}, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ExtractResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "https://x.com/a.png", body.Images[0].URL)
	assert.NotEmpty(t, resp.Headers["X-Request-ID"])
}

func TestLambdaReportsEarlierFailures(t *testing.T) {
	h := NewLambdaHandler(stubService{}, "")
	resp, err := h.Handler(context.Background(), request("/api/extract-images", map[string]string{"url": "https://partial.example"}, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ExtractResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "relay-allorigins", body.Strategy)
	require.Len(t, body.Failures, 1)
	assert.Equal(t, "HTTP 403", body.Failures[0].Reason)
}

func TestLambdaErrors(t *testing.T) {
	h := NewLambdaHandler(stubService{}, "")

	resp, err := h.Handler(context.Background(), request("/api/extract-images", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = h.Handler(context.Background(), request("/api/extract-images", map[string]string{"url": "https://down.example"}, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, resp.Body, "direct: HTTP 500")
}

func TestLambdaAPIKey(t *testing.T) {
	h := NewLambdaHandler(stubService{}, "secret")

	resp, err := h.Handler(context.Background(), request("/api/image-info", map[string]string{"url": "https://x.com/a.png"}, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = h.Handler(context.Background(), request("/api/image-info", map[string]string{"url": "https://x.com/a.png"}, map[string]string{"x-api-key": "secret"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = h.Handler(context.Background(), request("/health", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBudget(t *testing.T) {
	assert.Equal(t, maxBudget, budget(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got := budget(ctx)
	assert.True(t, got <= 7*time.Second && got > 5*time.Second, "budget = %s", got)
}
