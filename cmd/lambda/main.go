package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"image-extract-scraper/internal/api"
	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/logging"
	"image-extract-scraper/internal/models"
	"image-extract-scraper/internal/scraper"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	safetyMargin = 3 * time.Second
	maxBudget    = 70 * time.Second
)

// LambdaHandler serves the scraping routes from API Gateway proxy events
type LambdaHandler struct {
	svc    api.Service
	apiKey string
}

func NewLambdaHandler(svc api.Service, apiKey string) *LambdaHandler {
	return &LambdaHandler{svc: svc, apiKey: apiKey}
}

var baseHeaders = map[string]string{
	"Content-Type":                 "application/json; charset=utf-8",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,X-Api-Key,x-api-key," + api.RequestIDHeader,
	"Access-Control-Allow-Methods": "GET,OPTIONS",
}

// Handler dispatches on the request path. When SCRAPE_API_KEY is set every call must carry it.
func (h *LambdaHandler) Handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if event.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent, Headers: baseHeaders}, nil
	}

	requestID := header(event, api.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	logger := log.With().Str("request_id", requestID).Str("path", event.Path).Logger()

	if strings.HasSuffix(event.Path, "/health") {
		return h.respond(http.StatusOK, requestID, models.HealthResponse{Status: "OK", Timestamp: time.Now().UTC()}), nil
	}

	if h.apiKey != "" {
		key := header(event, "X-Api-Key")
		if key == "" {
			key = event.QueryStringParameters["key"]
		}
		if key != h.apiKey {
			return h.respond(http.StatusUnauthorized, requestID, models.ErrorResponse{Error: "Invalid or missing API key"}), nil
		}
	}

	target := strings.TrimSpace(event.QueryStringParameters["url"])
	if target == "" {
		return h.respond(http.StatusBadRequest, requestID, models.ErrorResponse{Error: `Missing "url" query parameter`}), nil
	}

	ctx, cancel := context.WithTimeout(ctx, budget(ctx))
	defer cancel()

	start := time.Now()
	meta := func() models.Metadata {
		return models.Metadata{URL: target, RequestID: requestID, ScrapedAt: time.Now().UTC(), DurationMs: time.Since(start).Milliseconds()}
	}
	useBrowser := api.UseBrowser(event.QueryStringParameters["useBrowser"])

	switch {
	case strings.HasSuffix(event.Path, "/image-info"):
		if _, err := scraper.ValidateTargetURL(target); err != nil {
			return h.failure(ctx, requestID, err), nil
		}
		info := h.svc.ImageInfo(ctx, target)
		return h.respond(http.StatusOK, requestID, models.ImageInfoResponse{
			Success:      true,
			SizeInfo:     info,
			OptimizedURL: h.svc.OptimizedURL(target),
			Metadata:     meta(),
		}), nil

	case strings.HasSuffix(event.Path, "/analyze"):
		result, err := h.svc.Analyze(ctx, target, useBrowser)
		if err != nil {
			logger.Warn().Err(err).Msg("analysis failed")
			return h.failure(ctx, requestID, err), nil
		}
		return h.respond(http.StatusOK, requestID, models.AnalyzeResponse{
			Success:      true,
			Reports:      result.Reports,
			Count:        len(result.Reports),
			FallbackUsed: result.FallbackUsed,
			Strategy:     result.Strategy,
			Failures:     result.Failures,
			Page:         result.Page,
			Metadata:     meta(),
		}), nil

	default:
		result, err := h.svc.Extract(ctx, target, useBrowser)
		if err != nil {
			logger.Warn().Err(err).Msg("extraction failed")
			return h.failure(ctx, requestID, err), nil
		}
		logger.Info().Int("images", result.Count).Dur("duration", time.Since(start)).Msg("extraction finished")
		return h.respond(http.StatusOK, requestID, models.ExtractResponse{
			Success:      true,
			Images:       result.Images,
			Count:        result.Count,
			FallbackUsed: result.FallbackUsed,
			Strategy:     result.Strategy,
			Failures:     result.Failures,
			Page:         result.Page,
			Metadata:     meta(),
		}), nil
	}
}

func (h *LambdaHandler) failure(ctx context.Context, requestID string, err error) events.APIGatewayProxyResponse {
	return h.respond(api.StatusFor(ctx, err), requestID, api.ErrorBody(err))
}

func (h *LambdaHandler) respond(status int, requestID string, payload any) events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(baseHeaders)+1)
	for k, v := range baseHeaders {
		headers[k] = v
	}
	headers[api.RequestIDHeader] = requestID

	body, err := sonic.MarshalString(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = `{"success":false,"error":"Failed to serialize response"}`
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: body}
}

// budget leaves a safety margin before the invocation deadline, capped at maxBudget
func budget(ctx context.Context) time.Duration {
	d := maxBudget
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline) - safetyMargin; remaining < d {
			d = remaining
		}
	}
	if d < time.Second {
		d = time.Second
	}
	return d
}

func header(event events.APIGatewayProxyRequest, name string) string {
	for k, v := range event.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)

	handler := NewLambdaHandler(scraper.NewScraper(cfg), os.Getenv("SCRAPE_API_KEY"))
	lambda.Start(handler.Handler)
}
