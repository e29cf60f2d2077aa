// Package handler contains the HTTP handlers for the quote API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/hapkiduki/shipping-quote/internal/application/dto"
	"github.com/hapkiduki/shipping-quote/internal/application/service"
	"github.com/hapkiduki/shipping-quote/internal/interfaces/http/middleware"
)

// respond writes a success envelope.
func respond[T any](w http.ResponseWriter, r *http.Request, status int, version string, data T) {
	render.Status(r, status)
	render.JSON(w, r, dto.NewSuccessResponse(data).WithMeta(middleware.GetRequestID(r.Context()), version))
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, version string, apiErr *dto.APIError) {
	render.Status(r, status)
	render.JSON(w, r, dto.NewAPIErrorResponse[any](apiErr).WithMeta(middleware.GetRequestID(r.Context()), version))
}

// statusFor maps a quote service error to an HTTP status and client error.
func statusFor(err error) (int, *dto.APIError) {
	switch {
	case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrBatchTooLarge):
		return http.StatusBadRequest, &dto.APIError{Code: dto.CodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, &dto.APIError{Code: "TIMEOUT", Message: "Request timed out"}
	}

	apiErr := dto.NewAPIError(err)
	switch apiErr.Code {
	case dto.CodeValidationError:
		return http.StatusBadRequest, apiErr
	case dto.CodeDistanceUnavailable:
		return http.StatusServiceUnavailable, apiErr
	default:
		return http.StatusInternalServerError, apiErr
	}
}

// errMalformedBody is returned when a request body is not valid JSON.
var errMalformedBody = &dto.APIError{
	Code:    dto.CodeInvalidRequest,
	Message: "Request body must be a valid JSON object",
}

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, dto.NewErrorResponse[any]("NOT_FOUND", "The requested resource was not found"))
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusMethodNotAllowed)
	render.JSON(w, r, dto.NewErrorResponse[any]("METHOD_NOT_ALLOWED", "The requested method is not allowed for this resource"))
}
