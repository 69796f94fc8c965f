// Package runlog defines the lineage and execution-log entities (PipeLog,
// DataBlockLog, NodeState) and the DomainError taxonomy shared across the
// engine.
package runlog

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a well-known category of execution-engine failure, as
// enumerated in the error handling design.
type ErrorCode string

const (
	ErrCodeInvalidSignature      ErrorCode = "INVALID_SIGNATURE"
	ErrCodeInvalidInputAssign    ErrorCode = "INVALID_INPUT_ASSIGNMENT"
	ErrCodeInputExhausted        ErrorCode = "INPUT_EXHAUSTED"
	ErrCodeNoCompatibleRuntime   ErrorCode = "NO_COMPATIBLE_RUNTIME"
	ErrCodeNoSuchDefinition      ErrorCode = "NO_SUCH_DEFINITION"
	ErrCodeMissingTargetStorage  ErrorCode = "MISSING_TARGET_STORAGE"
	ErrCodeUnsupportedOutputType ErrorCode = "UNSUPPORTED_OUTPUT_TYPE"
	ErrCodePipeFailure           ErrorCode = "PIPE_FAILURE"
)

// DomainError is a typed error enriched with contextual data, modeled on the
// error taxonomy used throughout the engine's domain layer.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is allows errors.Is comparisons keyed on error code alone.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return e.Code == de.Code
}

// WithContext returns a copy of the error with additional contextual fields merged in.
func (e *DomainError) WithContext(ctx map[string]interface{}) *DomainError {
	if e == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &DomainError{Code: e.Code, Message: e.Message, Cause: e.Cause, Context: merged}
}

func newError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause}
}

// NewInvalidSignature reports a pipe whose declared signature the parser rejected.
func NewInvalidSignature(message string) *DomainError {
	return newError(ErrCodeInvalidSignature, message, nil)
}

// NewInvalidInputAssignment reports a mismatch between declared inputs and slot names,
// or a generic-label resolution conflict.
func NewInvalidInputAssignment(message string) *DomainError {
	return newError(ErrCodeInvalidInputAssign, message, nil)
}

// NewInputExhausted reports that a slot had no usable block, or no slot had new work.
func NewInputExhausted(message string) *DomainError {
	return newError(ErrCodeInputExhausted, message, nil)
}

// NewNoCompatibleRuntime reports that no runtime in the context matched a pipe's
// compatibility set.
func NewNoCompatibleRuntime(pipeKey string) *DomainError {
	return newError(ErrCodeNoCompatibleRuntime, "no compatible runtime available", nil).
		WithContext(map[string]interface{}{"pipe_key": pipeKey})
}

// NewNoSuchDefinition reports that a pipe has no definition for the selected runtime class.
func NewNoSuchDefinition(pipeKey string, runtimeClass string) *DomainError {
	return newError(ErrCodeNoSuchDefinition, "pipe has no definition for runtime class", nil).
		WithContext(map[string]interface{}{"pipe_key": pipeKey, "runtime_class": runtimeClass})
}

// NewMissingTargetStorage reports that the worker was asked to conform output with no target storage set.
func NewMissingTargetStorage() *DomainError {
	return newError(ErrCodeMissingTargetStorage, "target storage is not set", nil)
}

// NewUnsupportedOutputType reports that a pipe returned a value that does not match its
// declared output format class.
func NewUnsupportedOutputType(message string) *DomainError {
	return newError(ErrCodeUnsupportedOutputType, message, nil)
}

// NewPipeFailure wraps a panic or error raised by the pipe callable itself.
func NewPipeFailure(cause error) *DomainError {
	return newError(ErrCodePipeFailure, "pipe callable failed", cause)
}
