package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Every failure a
// caller can observe over the API maps onto exactly one of these kinds.

var (
	// Hardware errors
	ErrFeatureUnsupported = errors.New("feature not supported on this hardware")
	ErrPermissionDenied   = errors.New("permission denied writing hardware attribute (daemon must run privileged)")
	ErrHardwareBusy       = errors.New("hardware busy or external tool timed out")
	ErrAttributeAbsent    = errors.New("sysfs attribute not present")
	ErrMalformedAttribute = errors.New("malformed sysfs attribute content")

	// Daemon lifecycle errors
	ErrNotReady     = errors.New("daemon is not ready yet")
	ErrShuttingDown = errors.New("daemon is shutting down")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileBuiltin  = errors.New("built-in profiles cannot be modified or deleted")
)

// ─── Validation ─────────────────────────────────────────────────────────────

// ValidationError reports input that violates a data-model invariant.
// It is always raised before any hardware access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid constructs a ValidationError for the given field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ─── Partial Failure ────────────────────────────────────────────────────────

// StepResult records the outcome of one step of a profile application.
type StepResult struct {
	Feature Feature `json:"feature"`
	Err     error   `json:"-"`
}

// OK reports whether the step succeeded.
func (r StepResult) OK() bool { return r.Err == nil }

// PartialFailure is returned when a profile application succeeded for some
// features and failed for others. Steps preserve application order.
type PartialFailure struct {
	Profile string
	Steps   []StepResult
}

func (e *PartialFailure) Error() string {
	var failed []string
	for _, s := range e.Steps {
		if s.Err != nil {
			failed = append(failed, string(s.Feature))
		}
	}
	return fmt.Sprintf("profile %q partially applied: %s failed", e.Profile, strings.Join(failed, ", "))
}

// Failed returns the features whose steps failed, in order.
func (e *PartialFailure) Failed() []Feature {
	var out []Feature
	for _, s := range e.Steps {
		if s.Err != nil {
			out = append(out, s.Feature)
		}
	}
	return out
}

// ─── Error Kinds ────────────────────────────────────────────────────────────

// ErrorKind tags an error for the wire. The API layer never returns a bare
// boolean; every failure carries one of these kinds.
type ErrorKind string

const (
	KindUnsupported    ErrorKind = "feature_unsupported"
	KindValidation     ErrorKind = "validation_error"
	KindPermission     ErrorKind = "permission_error"
	KindBusy           ErrorKind = "hardware_busy"
	KindNotReady       ErrorKind = "not_ready"
	KindPartialFailure ErrorKind = "partial_failure"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindInternal       ErrorKind = "internal"
)

// Kind classifies err into its wire-level error kind.
func Kind(err error) ErrorKind {
	var pf *PartialFailure
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFeatureUnsupported), errors.Is(err, ErrAttributeAbsent):
		return KindUnsupported
	case IsValidation(err):
		return KindValidation
	case errors.Is(err, ErrPermissionDenied):
		return KindPermission
	case errors.Is(err, ErrHardwareBusy):
		return KindBusy
	case errors.Is(err, ErrNotReady), errors.Is(err, ErrShuttingDown):
		return KindNotReady
	case errors.As(err, &pf):
		return KindPartialFailure
	case errors.Is(err, ErrProfileNotFound):
		return KindNotFound
	case errors.Is(err, ErrProfileExists), errors.Is(err, ErrProfileBuiltin):
		return KindConflict
	default:
		return KindInternal
	}
}
