// Package xerrors provides typed error wrappers for the CLI boundary: a
// manifest ParseError distinct from the engine's own DomainError taxonomy,
// and the exit-code mapping a process wrapping the engine should apply.
package xerrors

import (
	"errors"
	"fmt"

	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// ParseError represents a manifest parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures manifest validation issues outside the engine's
// own domain taxonomy (e.g. a malformed YAML document shape).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Exit codes a CLI wrapping the engine returns, per the documented error
// exit codes: 0 for normal completion (including no-output due to
// exhaustion), non-zero for the listed DomainError kinds or an unwrapped
// pipe failure.
const (
	ExitOK                  = 0
	ExitUnknown             = 1
	ExitNoCompatibleRuntime = 10
	ExitInvalidSignature    = 11
	ExitInvalidInputAssign  = 12
	ExitMissingTargetStore  = 13
	ExitPipeFailure         = 14
	ExitConfigError         = 20
)

// ExitCode maps an error returned from loading a manifest or executing a
// node to the process exit code a CLI should return.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var pe *ParseError
	var ve *ValidationError
	if errors.As(err, &pe) || errors.As(err, &ve) {
		return ExitConfigError
	}

	var de *runlog.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case runlog.ErrCodeNoCompatibleRuntime:
			return ExitNoCompatibleRuntime
		case runlog.ErrCodeInvalidSignature:
			return ExitInvalidSignature
		case runlog.ErrCodeInvalidInputAssign:
			return ExitInvalidInputAssign
		case runlog.ErrCodeMissingTargetStorage:
			return ExitMissingTargetStore
		case runlog.ErrCodePipeFailure:
			return ExitPipeFailure
		default:
			return ExitUnknown
		}
	}

	return ExitUnknown
}
