package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error with a stable machine code and a message that is
// safe to show to clients. Err holds the internal cause and is never sent.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func newAppError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: status}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is compares codes, so a WithError copy still matches its sentinel
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// WithError returns a copy of e carrying err as its cause
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

var (
	ErrInternal   = newAppError("INTERNAL_ERROR", http.StatusInternalServerError, "An unexpected error occurred")
	ErrBadRequest = newAppError("BAD_REQUEST", http.StatusBadRequest, "Invalid request")
	ErrNotFound   = newAppError("NOT_FOUND", http.StatusNotFound, "Resource not found")

	ErrRateLimitExceeded = newAppError("RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests, "Rate limit exceeded, please try again later")
	ErrValidationFailed  = newAppError("VALIDATION_FAILED", http.StatusUnprocessableEntity, "Request validation failed")
)

// Matching
var (
	ErrNoFaceToMatch     = newAppError("NO_FACE_TO_MATCH", http.StatusUnprocessableEntity, MessageNoFaceToMatch)
	ErrAnalysisFailed    = newAppError("ANALYSIS_FAILED", http.StatusUnprocessableEntity, "Face analysis failed")
	ErrExtractionFailed  = newAppError("EXTRACTION_FAILED", http.StatusUnprocessableEntity, "Could not extract face embedding")
	ErrDimensionMismatch = newAppError("DIMENSION_MISMATCH", http.StatusUnprocessableEntity, "Embedding dimensions do not match")
	ErrZeroMagnitude     = newAppError("ZERO_MAGNITUDE", http.StatusUnprocessableEntity, "Embedding has zero magnitude")
	ErrNonFiniteValue    = newAppError("NON_FINITE_VALUE", http.StatusUnprocessableEntity, "Embedding contains NaN or infinite values")
	ErrInvalidThreshold  = newAppError("INVALID_THRESHOLD", http.StatusUnprocessableEntity, "Threshold must be between -1 and 1")
)

// Images and enrollment
var (
	ErrInvalidImage       = newAppError("INVALID_IMAGE", http.StatusUnprocessableEntity, "Invalid image format or corrupted file")
	ErrNoFaceDetected     = newAppError("NO_FACE_DETECTED", http.StatusUnprocessableEntity, "No face detected in the image")
	ErrMultipleFaces      = newAppError("MULTIPLE_FACES", http.StatusUnprocessableEntity, "Multiple faces detected, please provide image with single face")
	ErrEnrollmentNotFound = newAppError("ENROLLMENT_NOT_FOUND", http.StatusNotFound, "No face is enrolled")
)

// MessageOf returns the client message of the first AppError in err's
// chain, or fallback
func MessageOf(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}
