package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeRequiredField ErrorCode = "REQUIRED_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// Attendance errors
	ErrCodeNoMatchingCheckIn ErrorCode = "NO_MATCHING_CHECK_IN"
	ErrCodeRecordNotFound    ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeOutsideGeofence   ErrorCode = "OUTSIDE_GEOFENCE"

	// Storage errors
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreConflict    ErrorCode = "STORE_CONFLICT"

	// Mirror errors, never returned to HTTP callers
	ErrCodeSyncSink ErrorCode = "SYNC_SINK_ERROR"
)

// AppError is the error type returned across package boundaries
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsAppError reports whether err wraps an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError extracts the first AppError in the chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// HTTPStatus maps an error to the status code the API answers with
func HTTPStatus(err error) int {
	appErr := GetAppError(err)
	if appErr == nil {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case ErrCodeValidation, ErrCodeRequiredField, ErrCodeInvalidFormat, ErrCodeNoMatchingCheckIn:
		return http.StatusBadRequest
	case ErrCodeRecordNotFound:
		return http.StatusNotFound
	case ErrCodeOutsideGeofence:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func NoMatchingCheckIn(slot string) *AppError {
	return NewAppError(ErrCodeNoMatchingCheckIn, fmt.Sprintf("No valid %s check-in found for check-out", slot), ErrNoMatchingCheckIn)
}

func RecordNotFound() *AppError {
	return NewAppError(ErrCodeRecordNotFound, "Check-in record not found", ErrRecordNotFound)
}

func OutsideGeofence(distanceMeters, radiusMeters float64) *AppError {
	return NewAppError(ErrCodeOutsideGeofence,
		fmt.Sprintf("You are %.0f meters away, outside the %.0f meter attendance area", distanceMeters, radiusMeters), nil)
}

func StoreUnavailable(err error) *AppError {
	return NewAppError(ErrCodeStoreUnavailable, "attendance store unavailable", err)
}

func SyncSinkError(err error) *AppError {
	return NewAppError(ErrCodeSyncSink, "spreadsheet mirror update failed", err)
}

var (
	ErrNoMatchingCheckIn = errors.New("no matching check-in")
	ErrRecordNotFound    = errors.New("record not found")
	ErrVersionConflict   = errors.New("record changed concurrently")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
	ErrInvalidFormat   = errors.New("invalid format")
)
