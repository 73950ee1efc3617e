package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/folio/internal/compiler"
)

// BuildError represents a hard failure during a build.
//
// Hard failures are never retried. The underlying error is usually a
// compiler.Diagnostics value; DiagnosticsOf extracts it.
type BuildError struct {
	// Code identifies the phase that failed.
	Code BuildErrorCode

	// Message is a human-readable description.
	Message string

	// Token identifies the build.
	Token string

	// Passes is the number of layout passes completed before the failure.
	Passes int

	// Err is the cause.
	Err error
}

// BuildErrorCode categorizes build errors.
type BuildErrorCode string

const (
	// ErrCodeResolveFailed indicates the document could not be resolved:
	// syntax errors, missing inputs, unknown variables and the like.
	ErrCodeResolveFailed BuildErrorCode = "RESOLVE_FAILED"

	// ErrCodeLayoutFailed indicates a layout pass returned an error.
	ErrCodeLayoutFailed BuildErrorCode = "LAYOUT_FAILED"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Token != "" {
		msg = fmt.Sprintf("%s (build=%s)", msg, e.Token)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// IsResolveError returns true if err is a BuildError from resolution.
// Uses errors.As to handle wrapped errors.
func IsResolveError(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeResolveFailed
	}
	return false
}

// IsLayoutError returns true if err is a BuildError from layout.
// Uses errors.As to handle wrapped errors.
func IsLayoutError(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == ErrCodeLayoutFailed
	}
	return false
}

// DiagnosticsOf returns the diagnostics carried by err.
//
// Errors that are not diagnostics are converted into a single error
// diagnostic so callers always have something to show.
func DiagnosticsOf(err error) compiler.Diagnostics {
	if err == nil {
		return nil
	}
	var diags compiler.Diagnostics
	if errors.As(err, &diags) {
		return diags
	}
	return compiler.Diagnostics{compiler.Errorf(compiler.Span{}, "%v", err)}
}

// ErrNoPass is reported when a layouter returns neither a pass nor an error.
var ErrNoPass = errors.New("layouter returned no pass")

func newResolveError(token string, err error) *BuildError {
	return &BuildError{
		Code:    ErrCodeResolveFailed,
		Message: "document could not be resolved",
		Token:   token,
		Err:     err,
	}
}

func newLayoutError(token string, passes int, err error) *BuildError {
	return &BuildError{
		Code:    ErrCodeLayoutFailed,
		Message: fmt.Sprintf("layout pass %d failed", passes+1),
		Token:   token,
		Passes:  passes,
		Err:     err,
	}
}
