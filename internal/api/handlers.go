package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"image-extract-scraper/internal/models"
	"image-extract-scraper/internal/scraper"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const missingURLMessage = `Missing "url" query parameter`

// Handler serves the scraping routes
type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "OK", Timestamp: time.Now().UTC()})
}

// ExtractImages lists the images of ?url=. useBrowser defaults to true.
func (h *Handler) ExtractImages(c *gin.Context) {
	target, ok := requireURL(c)
	if !ok {
		return
	}
	start := time.Now()
	ctx := c.Request.Context()

	result, err := h.svc.Extract(ctx, target, UseBrowser(c.Query("useBrowser")))
	if err != nil {
		h.fail(ctx, c, target, err)
		return
	}

	c.JSON(http.StatusOK, models.ExtractResponse{
		Success:      true,
		Images:       result.Images,
		Count:        result.Count,
		FallbackUsed: result.FallbackUsed,
		Strategy:     result.Strategy,
		Failures:     result.Failures,
		Page:         result.Page,
		Metadata:     metadata(c, target, start),
	})
}

// Analyze extracts the images of ?url= and sizes each against its optimized counterpart
func (h *Handler) Analyze(c *gin.Context) {
	target, ok := requireURL(c)
	if !ok {
		return
	}
	start := time.Now()
	ctx := c.Request.Context()

	result, err := h.svc.Analyze(ctx, target, UseBrowser(c.Query("useBrowser")))
	if err != nil {
		h.fail(ctx, c, target, err)
		return
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		Success:      true,
		Reports:      result.Reports,
		Count:        len(result.Reports),
		FallbackUsed: result.FallbackUsed,
		Strategy:     result.Strategy,
		Failures:     result.Failures,
		Page:         result.Page,
		Metadata:     metadata(c, target, start),
	})
}

// ImageInfo sizes a single image given as ?url=
func (h *Handler) ImageInfo(c *gin.Context) {
	imageURL, ok := requireURL(c)
	if !ok {
		return
	}
	if _, err := scraper.ValidateTargetURL(imageURL); err != nil {
		h.fail(c.Request.Context(), c, imageURL, err)
		return
	}
	start := time.Now()

	info := h.svc.ImageInfo(c.Request.Context(), imageURL)
	c.JSON(http.StatusOK, models.ImageInfoResponse{
		Success:      true,
		SizeInfo:     info,
		OptimizedURL: h.svc.OptimizedURL(imageURL),
		Metadata:     metadata(c, imageURL, start),
	})
}

func (h *Handler) fail(ctx context.Context, c *gin.Context, target string, err error) {
	status := StatusFor(ctx, err)
	log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Str("target", target).
		Int("status", status).Msg("request failed")
	c.JSON(status, ErrorBody(err))
}

func requireURL(c *gin.Context) (string, bool) {
	target := strings.TrimSpace(c.Query("url"))
	if target == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: missingURLMessage})
		return "", false
	}
	return target, true
}

// UseBrowser reads the useBrowser flag. Absent means true; otherwise only "true" selects rendering.
func UseBrowser(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || strings.EqualFold(raw, "true")
}

func metadata(c *gin.Context, target string, start time.Time) models.Metadata {
	return models.Metadata{
		URL:        target,
		RequestID:  c.GetString(requestIDKey),
		ScrapedAt:  time.Now().UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}
}
