package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an engine error.
type ErrorClass string

const (
	// ErrorClassConfiguration covers unresolvable types, duplicate names,
	// bad references, missing or malformed properties and construction
	// failures. Always fatal.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassGraph covers graph-shape problems such as cycles.
	ErrorClassGraph ErrorClass = "graph"

	// ErrorClassRuntime covers node I/O and processing failures.
	ErrorClassRuntime ErrorClass = "runtime"

	// ErrorClassFatal is the class of the error a run returns after Die.
	ErrorClassFatal ErrorClass = "fatal"
)

// EngineError represents a classified error with context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Actor is the instance name of the actor involved, if any.
	Actor string `json:"actor,omitempty"`

	// Operation is what was being done (build, run, finalize, ...).
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`

	// Details contains additional context.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Actor != "" && e.Operation != "" {
		msg = fmt.Sprintf("%s (actor=%s, operation=%s)", msg, e.Actor, e.Operation)
	} else if e.Actor != "" {
		msg = fmt.Sprintf("%s (actor=%s)", msg, e.Actor)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches on class and code.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassConfiguration, Message: message, Err: err}
}

// NewGraphError creates a graph-shape error.
func NewGraphError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassGraph, Message: message, Err: err}
}

// NewRuntimeError creates a runtime error.
func NewRuntimeError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassRuntime, Message: message, Err: err}
}

// NewFatalError creates a fatal error.
func NewFatalError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassFatal, Message: message, Err: err, Code: ErrCodeFatal}
}

// WithActor adds actor context.
func (e *EngineError) WithActor(name string) *EngineError {
	e.Actor = name
	return e
}

// WithOperation adds operation context.
func (e *EngineError) WithOperation(operation string) *EngineError {
	e.Operation = operation
	return e
}

// WithCode sets the error code.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// WithDetail adds a detail field.
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func classOf(err error) (ErrorClass, bool) {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class, true
	}
	return "", false
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	c, ok := classOf(err)
	return ok && c == ErrorClassConfiguration
}

// IsGraph reports whether err is a graph-shape error.
func IsGraph(err error) bool {
	c, ok := classOf(err)
	return ok && c == ErrorClassGraph
}

// IsRuntime reports whether err is a runtime error.
func IsRuntime(err error) bool {
	c, ok := classOf(err)
	return ok && c == ErrorClassRuntime
}

// IsFatal reports whether err ended a run through Die.
func IsFatal(err error) bool {
	c, ok := classOf(err)
	return ok && c == ErrorClassFatal
}

// ErrorCode returns the code of the first EngineError in the chain.
func ErrorCode(err error) string {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Common error codes.
const (
	ErrCodeUnknownType        = "UNKNOWN_TYPE"
	ErrCodeDuplicateActor     = "DUPLICATE_ACTOR"
	ErrCodeUnknownReference   = "UNKNOWN_REFERENCE"
	ErrCodeMissingProperty    = "MISSING_PROPERTY"
	ErrCodeInvalidProperty    = "INVALID_PROPERTY"
	ErrCodeConstructionFailed = "CONSTRUCTION_FAILED"
	ErrCodeParse              = "PARSE_ERROR"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeCycleDetected      = "CYCLE_DETECTED"
	ErrCodeAlreadyRun         = "ALREADY_RUN"
	ErrCodeFatal              = "FATAL"
)
