// Package errors classifies failures by origin and by whether a run can
// carry on past them.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType is where a failure came from
type ErrorType int

const (
	ErrorTypeConfig ErrorType = iota
	ErrorTypeDiscovery
	ErrorTypeVCS
	ErrorTypeParse
	ErrorTypeNetwork
	ErrorTypeSummarization
	ErrorTypeFileSystem
	// ErrorTypeInternal covers runs stopped before the report was written
	ErrorTypeInternal
)

// Severity decides whether the process fails
type Severity int

const (
	// SeverityLow: the affected input is skipped
	SeverityLow Severity = iota
	// SeverityMedium: a fallback takes over
	SeverityMedium
	// SeverityCritical: no report can be produced
	SeverityCritical
)

// Error is a classified failure wrapping an optional cause
type Error struct {
	Type     ErrorType
	Severity Severity
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates an error without a cause
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{Type: errType, Severity: severity, Message: message}
}

// Wrap classifies err. A nil err stays nil.
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: errType, Severity: severity, Message: message, Cause: err}
}

func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityMedium, fmt.Sprintf(format, args...))
}

func DiscoveryErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeDiscovery, SeverityLow, fmt.Sprintf(format, args...))
}

func VCSErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeVCS, SeverityLow, fmt.Sprintf(format, args...))
}

func ParseErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeParse, SeverityLow, fmt.Sprintf(format, args...))
}

func NetworkErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeNetwork, SeverityMedium, fmt.Sprintf(format, args...))
}

func SummarizationErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeSummarization, SeverityMedium, fmt.Sprintf(format, args...))
}

// FileSystemErrorf is for writes the command exists to make, such as the
// report itself
func FileSystemErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeFileSystem, SeverityCritical, fmt.Sprintf(format, args...))
}

// Interrupted marks a run stopped before anything was written
func Interrupted(err error, message string) *Error {
	return Wrap(err, ErrorTypeInternal, SeverityCritical, message)
}

// IsFatal reports whether err must fail the process. Classified errors are
// fatal only when critical; anything unclassified is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityCritical
	}
	return true
}
