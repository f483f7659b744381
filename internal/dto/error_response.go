package dto

import apperrors "stockroom/internal/errors"

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Success   bool                         `json:"success"`
	Message   string                       `json:"message"`
	Code      string                       `json:"code"`
	TraceID   string                       `json:"traceId"`
	Available *int                         `json:"available,omitempty"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Errors    []apperrors.BulkItemError    `json:"errors,omitempty"`
}
