package site

import (
	"errors"
	"fmt"
	"path/filepath"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for site loading.
const (
	ErrCodeNotFound    = "SITE_NOT_FOUND"
	ErrCodeLoadFailed  = "LOAD_FAILED"
	ErrCodeInvalidSite = "INVALID_SITE"
	ErrCodeNoPages     = "NO_PAGES"
)

// LoadError reports why a site definition could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the LoadError code of err, or "" for other errors.
func CodeOf(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsNotFound reports whether err means the site directory does not exist.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsInvalid reports whether err means the definition failed validation.
func IsInvalid(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeInvalidSite || code == ErrCodeNoPages
}

// fromCUE converts a CUE error into a LoadError. The position points into
// the user's files when any error has one there; constraints of the
// embedded schema are only used as a last resort.
func fromCUE(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	le := &LoadError{Code: code, Message: errs[0].Error()}
	for _, e := range errs {
		for _, pos := range cueerrors.Positions(e) {
			if !pos.IsValid() {
				continue
			}
			if filepath.Base(pos.Filename()) != schemaFile {
				le.Message = e.Error()
				le.Pos = pos
				return le
			}
			if !le.Pos.IsValid() {
				le.Pos = pos
			}
		}
	}
	return le
}
