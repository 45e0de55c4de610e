// Package errors provides standardized domain errors with codes for the
// transcoding core.
//
// Usage:
//
//	// In the transcoder - return typed errors
//	if track == nil {
//	    return errors.Probe("no audio track found")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrUnsupportedChannelCount) {
//	    status.Insert(hash, domain.Failed(err))
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeProbe:
//	        log.Warn("unsupported input", "path", path)
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the transcoding core. These correspond
// directly to the error kinds a caller needs to distinguish: whether a
// failure should publish a Failed status, whether it should be logged
// and skipped, or whether it aborts a whole batch.
const (
	CodeIO                      Code = "IO"
	CodeProbe                   Code = "PROBE"
	CodeDecode                  Code = "DECODE"
	CodeUnsupportedChannelCount Code = "UNSUPPORTED_CHANNEL_COUNT"
	CodeEncode                  Code = "ENCODE"
	CodeImage                   Code = "IMAGE"
	CodeDatabase                Code = "DATABASE"
	CodeHashFailure             Code = "HASH_FAILURE"
)

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Details any    `json:"details,omitempty"`
	cause   error // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithPath attaches a source path to the error.
func (e *Error) WithPath(path string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Path: path, Details: e.Details, cause: e.cause}
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Path: e.Path, Details: details, cause: e.cause}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Path: e.Path, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrIO                      = &Error{Code: CodeIO, Message: "io error"}
	ErrProbe                   = &Error{Code: CodeProbe, Message: "probe error"}
	ErrDecode                  = &Error{Code: CodeDecode, Message: "decode error"}
	ErrUnsupportedChannelCount = &Error{Code: CodeUnsupportedChannelCount, Message: "unsupported channel count"}
	ErrEncode                  = &Error{Code: CodeEncode, Message: "encode error"}
	ErrImage                   = &Error{Code: CodeImage, Message: "image error"}
	ErrDatabase                = &Error{Code: CodeDatabase, Message: "database error"}
	ErrHashFailure             = &Error{Code: CodeHashFailure, Message: "hash failure"}
)

// IO creates an I/O error attached to a path.
func IO(path string, err error) *Error {
	return &Error{Code: CodeIO, Message: "io error", Path: path, cause: err}
}

// Probe creates a probe error.
func Probe(msg string) *Error {
	return &Error{Code: CodeProbe, Message: msg}
}

// Probef creates a probe error with a formatted message.
func Probef(format string, args ...any) *Error {
	return &Error{Code: CodeProbe, Message: fmt.Sprintf(format, args...)}
}

// Decode creates a decode error.
func Decode(msg string) *Error {
	return &Error{Code: CodeDecode, Message: msg}
}

// Decodef creates a decode error with a formatted message.
func Decodef(format string, args ...any) *Error {
	return &Error{Code: CodeDecode, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedChannelCount creates an unsupported-channel-count error.
func UnsupportedChannelCount(n int) *Error {
	return &Error{Code: CodeUnsupportedChannelCount, Message: fmt.Sprintf("unsupported channel count: %d", n)}
}

// Encode creates an encode error.
func Encode(msg string) *Error {
	return &Error{Code: CodeEncode, Message: msg}
}

// Encodef creates an encode error with a formatted message.
func Encodef(format string, args ...any) *Error {
	return &Error{Code: CodeEncode, Message: fmt.Sprintf(format, args...)}
}

// Image creates a (non-fatal) cover-art error.
func Image(msg string) *Error {
	return &Error{Code: CodeImage, Message: msg}
}

// Database creates a database error.
func Database(msg string) *Error {
	return &Error{Code: CodeDatabase, Message: msg}
}

// HashFailure creates a hash-failure error.
func HashFailure(path string, err error) *Error {
	return &Error{Code: CodeHashFailure, Message: "failed to compute content hash", Path: path, cause: err}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
