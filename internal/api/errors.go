package api

import (
	"context"
	"errors"
	"net/http"

	"image-extract-scraper/internal/models"
)

// StatusFor maps a scraping error to an HTTP status
func StatusFor(ctx context.Context, err error) int {
	var invalid *models.InvalidURLError
	var exhausted *models.ExhaustionError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &exhausted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody builds the JSON error payload. Exhaustion errors list each strategy failure.
func ErrorBody(err error) models.ErrorResponse {
	resp := models.ErrorResponse{Error: err.Error()}
	var exhausted *models.ExhaustionError
	if errors.As(err, &exhausted) {
		resp.Error = "no strategy could retrieve images from the page"
		resp.Details = exhausted.Reasons()
	}
	return resp
}
