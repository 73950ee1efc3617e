package vfs

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an input could not be read.
type ErrorKind string

const (
	// KindNotFound means no content exists for the path.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindAccessDenied means the content exists but may not be read.
	KindAccessDenied ErrorKind = "ACCESS_DENIED"

	// KindIsDirectory means the path names a directory.
	KindIsDirectory ErrorKind = "IS_DIRECTORY"

	// KindInvalidUTF8 means the bytes were read but are not valid text.
	KindInvalidUTF8 ErrorKind = "INVALID_UTF8"

	// KindIo covers every other transport failure.
	KindIo ErrorKind = "IO"
)

// FileError is the error type returned by providers.
//
// The message includes both kind and path so that it is stable across
// calls; fingerprinting relies on that.
type FileError struct {
	Kind ErrorKind
	Path VirtualPath
	Err  error
}

// Error implements the error interface.
func (e *FileError) Error() string {
	var msg string
	switch e.Kind {
	case KindNotFound:
		msg = fmt.Sprintf("file not found: %s", e.Path)
	case KindAccessDenied:
		msg = fmt.Sprintf("access denied: %s", e.Path)
	case KindIsDirectory:
		msg = fmt.Sprintf("is a directory: %s", e.Path)
	case KindInvalidUTF8:
		msg = fmt.Sprintf("file is not valid utf-8: %s", e.Path)
	default:
		msg = fmt.Sprintf("failed to read %s", e.Path)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *FileError) Unwrap() error {
	return e.Err
}

// NotFound creates a NotFound error for p.
func NotFound(p VirtualPath) *FileError {
	return &FileError{Kind: KindNotFound, Path: p}
}

// KindOf returns the ErrorKind of err, or "" if err is not a FileError.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) ErrorKind {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsNotFound returns true if err is a NotFound FileError.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
