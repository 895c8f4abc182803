/*
errors.go - Centralized error types for the billing domain

PURPOSE:
  All error taxonomy in one place. Other packages wrap these errors with
  additional context; HTTP handlers classify them for status codes.

ERROR CATEGORIES:
  1. Validation errors - bad input, surfaced, never retried
  2. Not-found errors  - referenced entity absent
  3. Conflict errors   - duplicate email, already-closed month
  4. Side-effect errors - report generation, document upload
  5. Compensation errors - logged context only, never mask the original

USAGE:
  if billing.IsConflict(err) { ... }

  var verr *billing.ValidationError
  if errors.As(err, &verr) { ... }
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPilotNotFound is returned when a referenced pilot doesn't exist.
	ErrPilotNotFound = errors.New("pilot not found")

	// ErrAlreadyClosed is returned by history inserts that violate the
	// (pilot, month) uniqueness constraint. During a scan this means
	// someone else closed the pilot first and is treated as benign.
	ErrAlreadyClosed = errors.New("month already closed for pilot")

	// ErrEmailInUse is returned when a login email is already registered.
	ErrEmailInUse = errors.New("email already in use")

	// ErrIdentityNotFound is returned when a login identity doesn't exist.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrSessionInvalid is returned for expired, signed-out, or malformed
	// sessions.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrDocumentNotFound is returned when a stored document is absent.
	ErrDocumentNotFound = errors.New("document not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports bad or missing caller input. Surfaced to the
// caller verbatim, never retried automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ReportError wraps a report-generator failure. Aborts that pilot's
// close without aborting the scan.
type ReportError struct {
	PilotID string
	Err     error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report generation failed for pilot %s: %v", e.PilotID, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

// UploadError wraps a document-storage failure during close.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed for %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// CompensationError records a failed compensating action. It is only
// ever attached as context to the original failure, never returned on
// its own, so compensation problems cannot hide the real error.
type CompensationError struct {
	Action string
	Err    error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation %q failed: %v", e.Action, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsValidation reports whether the error is caller-input related.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsNotFound reports whether the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPilotNotFound) ||
		errors.Is(err, ErrIdentityNotFound) ||
		errors.Is(err, ErrDocumentNotFound)
}

// IsConflict reports whether the error is a 409-equivalent duplicate.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailInUse) || errors.Is(err, ErrAlreadyClosed)
}
