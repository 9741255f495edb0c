package errors

import (
	goerrors "errors"
	"fmt"
)

// SeekrError is the structured error type returned by Seekr's
// components.
type SeekrError struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SeekrError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SeekrError) Unwrap() error {
	return e.Cause
}

// Is matches SeekrErrors by Kind, so errors.Is(err, WorkspaceMissing(...))
// style checks work without comparing messages.
func (e *SeekrError) Is(target error) bool {
	t, ok := target.(*SeekrError)
	return ok && e.Kind == t.Kind
}

// New creates a SeekrError of the given kind.
func New(kind Kind, message string, cause error) *SeekrError {
	return &SeekrError{Kind: kind, Message: message, Cause: cause}
}

func WorkspaceMissing(message string, cause error) *SeekrError {
	return New(KindWorkspaceMissing, message, cause)
}

func IndexMissing(message string, cause error) *SeekrError {
	return New(KindIndexMissing, message, cause)
}

func IndexCorrupt(message string, cause error) *SeekrError {
	return New(KindIndexCorrupt, message, cause)
}

func ParseError(message string, cause error) *SeekrError {
	return New(KindParseError, message, cause)
}

func EmbedderError(message string, cause error) *SeekrError {
	return New(KindEmbedderError, message, cause)
}

func IoError(message string, cause error) *SeekrError {
	return New(KindIoError, message, cause)
}

func Cancelled(message string, cause error) *SeekrError {
	return New(KindCancelled, message, cause)
}

// GetKind extracts the Kind from err, or "" if err is not a SeekrError.
func GetKind(err error) Kind {
	if se, ok := err.(*SeekrError); ok {
		return se.Kind
	}
	return ""
}

// ExitCode extracts the process exit code for err, defaulting to 1
// (usage error) for any error that is not a SeekrError -- cobra's own
// argument and flag validation failures, chiefly.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *SeekrError
	if goerrors.As(err, &se) {
		return se.Kind.ExitCode()
	}
	return 1
}
