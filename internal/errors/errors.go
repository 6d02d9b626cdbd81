// Package errors defines the engine's error taxonomy. Failures are
// categorized so callers can tell apart fatal conditions (missing portfolio
// or session, broken persistence) from best-effort degradation (a price
// series that could not be synced).
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies an error for propagation policy.
type Category string

const (
	// CategoryNotFound means a referenced portfolio or session does not
	// exist. Fatal to that single computation.
	CategoryNotFound Category = "not_found"
	// CategoryValidation means caller input was malformed.
	CategoryValidation Category = "validation"
	// CategorySync means the external price backfill failed for one asset.
	// Caught locally; reconstruction degrades instead of aborting.
	CategorySync Category = "sync"
	// CategoryPersistence means a final delete/insert of output rows failed.
	// Always propagated, never swallowed.
	CategoryPersistence Category = "persistence"
	// CategorySystem is everything else.
	CategorySystem Category = "system"
)

// Error carries a category, a stable code and an optional cause.
type Error struct {
	Category Category
	Code     string
	Message  string
	Details  map[string]any
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewNotFound reports a missing referenced entity.
func NewNotFound(resource, id string) *Error {
	return &Error{
		Category: CategoryNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
		Details:  map[string]any{"resource": resource, "id": id},
	}
}

// NewValidation reports malformed caller input.
func NewValidation(param, reason string) *Error {
	return &Error{
		Category: CategoryValidation,
		Code:     "INVALID_PARAMETER",
		Message:  fmt.Sprintf("invalid parameter %q: %s", param, reason),
		Details:  map[string]any{"parameter": param, "reason": reason},
	}
}

// NewSyncFailure reports a failed historical-data sync for one asset.
func NewSyncFailure(assetID string, cause error) *Error {
	return &Error{
		Category: CategorySync,
		Code:     "SYNC_FAILURE",
		Message:  fmt.Sprintf("historical data sync failed for asset %s", assetID),
		Details:  map[string]any{"assetId": assetID},
		Cause:    cause,
	}
}

// NewPersistence reports a failed write of output rows.
func NewPersistence(operation string, cause error) *Error {
	return &Error{
		Category: CategoryPersistence,
		Code:     "PERSISTENCE_FAILURE",
		Message:  fmt.Sprintf("persistence failed during %s", operation),
		Details:  map[string]any{"operation": operation},
		Cause:    cause,
	}
}

// NewInternal reports an unexpected failure.
func NewInternal(message string, cause error) *Error {
	return &Error{
		Category: CategorySystem,
		Code:     "INTERNAL_ERROR",
		Message:  message,
		Cause:    cause,
	}
}

// CategoryOf extracts the category from an error chain.
// Uncategorized errors report CategorySystem.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategorySystem
}

// IsNotFound reports whether err is a missing-entity error.
func IsNotFound(err error) bool { return CategoryOf(err) == CategoryNotFound }

// IsRetryable reports whether the operation that produced err is worth
// retrying. Sync and persistence failures usually are; bad references and
// bad input never are.
func IsRetryable(err error) bool {
	switch CategoryOf(err) {
	case CategorySync, CategoryPersistence:
		return true
	default:
		return false
	}
}

// HTTPStatus maps an error to the status code the API surface reports.
func HTTPStatus(err error) int {
	switch CategoryOf(err) {
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryValidation:
		return http.StatusBadRequest
	case CategorySync:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
