// Package httpx holds the JSON envelope helpers shared by every controller.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

const maxBodyBytes = 8 << 20

// Trace returns the request id and a logger carrying it. The chi request id
// is reused when present so access logs and error logs correlate.
func Trace(r *http.Request, logger *zap.Logger) (string, *zap.Logger) {
	traceID := middleware.GetReqID(r.Context())
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return traceID, logger.With(zap.String("traceId", traceID))
}

// DecodeJSON decodes the request body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
		Field:   "body",
		Message: "request body must be valid JSON",
	})
}

// PathInt parses a positive integer URL parameter.
func PathInt(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter, falling back to def.
func QueryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// WriteError maps a typed application error to its status code and envelope.
// Anything untyped is logged and reported as a generic 500.
func WriteError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	resp := dto.ErrorResponse{Success: false, TraceID: traceID, Message: err.Error()}
	status := http.StatusInternalServerError

	if ve, ok := apperrors.IsValidationError(err); ok {
		status, resp.Code, resp.Details = http.StatusBadRequest, "VALIDATION_ERROR", ve.Details
	} else if ise, ok := apperrors.IsInsufficientStockError(err); ok {
		available := ise.Available
		status, resp.Code, resp.Available = http.StatusBadRequest, "INSUFFICIENT_STOCK", &available
	} else if be, ok := apperrors.IsBulkError(err); ok {
		status, resp.Code, resp.Errors = http.StatusBadRequest, "BULK_OPERATION_FAILED", be.Items
	} else if _, ok := apperrors.IsNotFoundError(err); ok {
		status, resp.Code = http.StatusNotFound, "NOT_FOUND"
	} else if _, ok := apperrors.IsConflictError(err); ok {
		status, resp.Code = http.StatusConflict, "CONFLICT"
	} else if _, ok := apperrors.IsUnauthorizedError(err); ok {
		status, resp.Code = http.StatusUnauthorized, "UNAUTHORIZED"
	} else if _, ok := apperrors.IsForbiddenError(err); ok {
		status, resp.Code = http.StatusForbidden, "FORBIDDEN"
	} else if _, ok := apperrors.IsDeadlockError(err); ok {
		status, resp.Code = http.StatusConflict, "DEADLOCK"
	} else {
		logger.Error("unexpected error", zap.Error(err))
		resp.Code, resp.Message = "INTERNAL_ERROR", "an unexpected error occurred"
	}

	if status < http.StatusInternalServerError {
		logger.Info("request rejected", zap.Int("status", status), zap.String("code", resp.Code), zap.String("message", resp.Message))
	}
	WriteJSON(w, status, resp, logger)
}
