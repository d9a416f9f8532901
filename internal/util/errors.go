package util

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Common error types for parbench
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidRange indicates a range whose last position precedes its first
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidSampleCount indicates a negative sample count
	ErrInvalidSampleCount = errors.New("invalid sample count")

	// ErrNilOperation indicates a missing per-element or per-block operation
	ErrNilOperation = errors.New("operation must not be nil")

	// ErrResourceExhausted indicates a thread could not be created
	ErrResourceExhausted = errors.New("thread budget exhausted")

	// ErrNotJoinable indicates a join on a thread that was already joined or detached
	ErrNotJoinable = errors.New("thread is not joinable")

	// ErrUnknownScheduler indicates an unsupported scheduling policy name
	ErrUnknownScheduler = errors.New("unknown scheduler")

	// ErrUnknownKernel indicates an unsupported workload kernel name
	ErrUnknownKernel = errors.New("unknown kernel")

	// ErrCancelled indicates an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")
)

// OperationError wraps a failure raised by a per-element or per-block operation.
// Unit is the element index (fork/join) or block index (partitioned run).
type OperationError struct {
	Unit int
	Err  error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	return fmt.Sprintf("operation failed at unit %d: %v", e.Unit, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *OperationError) Unwrap() error {
	return e.Err
}

// WrapOperationError attaches the failing unit index to err
func WrapOperationError(unit int, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return &OperationError{Unit: unit, Err: err}
}

// PanicError carries a value recovered from a panicking operation or thread body
type PanicError struct {
	Value interface{}
	Stack []byte
}

// Error implements the error interface
func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Unwrap exposes the panic value when it is itself an error
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// NewPanicError captures the current stack together with the recovered value
func NewPanicError(value interface{}) *PanicError {
	return &PanicError{
		Value: value,
		Stack: debug.Stack(),
	}
}

// CleanupError collects failures encountered while joining threads
type CleanupError struct {
	MultiError
}

// Error implements the error interface
func (c *CleanupError) Error() string {
	return "cleanup failed: " + c.MultiError.Error()
}

// Unwrap returns the collected join failures
func (c *CleanupError) Unwrap() []error {
	return c.Errors
}

// ErrorOrNil returns nil if no join failed, otherwise the CleanupError itself
func (c *CleanupError) ErrorOrNil() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c
}

// ExecutionError reports an operation failure, a cleanup failure, or both.
// Neither side masks the other.
type ExecutionError struct {
	Op      error
	Cleanup error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	switch {
	case e.Op != nil && e.Cleanup != nil:
		return fmt.Sprintf("%v; additionally %v", e.Op, e.Cleanup)
	case e.Op != nil:
		return e.Op.Error()
	case e.Cleanup != nil:
		return e.Cleanup.Error()
	default:
		return "no errors"
	}
}

// Unwrap returns the non-nil operation and cleanup failures
func (e *ExecutionError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Op != nil {
		errs = append(errs, e.Op)
	}
	if e.Cleanup != nil {
		errs = append(errs, e.Cleanup)
	}
	return errs
}

// JoinExecution merges an operation failure with a cleanup failure.
// It returns op unchanged when cleanup is nil.
func JoinExecution(op, cleanup error) error {
	if cleanup == nil {
		return op
	}
	return &ExecutionError{Op: op, Cleanup: cleanup}
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 { // Limit to first 10 errors in the message
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else if i == 10 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewMultiError creates a new MultiError from a slice of errors
// It filters out nil errors
func NewMultiError(errors []error) *MultiError {
	m := &MultiError{
		Errors: make([]error, 0, len(errors)),
	}
	for _, err := range errors {
		if err != nil {
			m.Errors = append(m.Errors, err)
		}
	}
	return m
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// Unwrap ties every validation failure to ErrInvalidConfig
func (v *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsInvalidRange checks if an error is an invalid range error
func IsInvalidRange(err error) bool {
	return errors.Is(err, ErrInvalidRange)
}

// IsResourceExhausted checks if an error reports a refused thread creation
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrResourceExhausted)
}

// IsCancelled checks if an error is a cancellation error
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsOperationFailure checks if an error originated in a user-supplied operation
func IsOperationFailure(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr)
}

// IsCleanupFailure checks if an error carries a failure from joining threads
func IsCleanupFailure(err error) bool {
	var cleanupErr *CleanupError
	return errors.As(err, &cleanupErr)
}

// IsPanic checks if an error was produced by a recovered panic
func IsPanic(err error) bool {
	var panicErr *PanicError
	return errors.As(err, &panicErr)
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case IsCancelled(err):
		return "Operation was cancelled."
	case IsResourceExhausted(err):
		return "Could not start enough threads. Raise sampling.maxThreads or reduce the workload."
	case IsInvalidRange(err):
		return "Invalid range: the end position precedes the start position."
	case errors.Is(err, ErrInvalidSampleCount):
		return "Invalid sample count: the number of samples must not be negative."
	case errors.Is(err, ErrUnknownScheduler):
		return "Unknown scheduler. Use one of: async, deferred, pooled."
	case errors.Is(err, ErrUnknownKernel):
		return "Unknown kernel. Run 'parbench run --help' for the list of kernels."
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	default:
		// Return the original error message for unknown errors
		return err.Error()
	}
}

// CombineErrors combines multiple errors into a single error
// Returns nil if all errors are nil
func CombineErrors(errors ...error) error {
	m := NewMultiError(errors)
	return m.ErrorOrNil()
}

// ErrorWithContext adds context to an error message
type ErrorWithContext struct {
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *ErrorWithContext) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s: %v", k, v))
			first = false
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap returns the wrapped error
func (e *ErrorWithContext) Unwrap() error {
	return e.Err
}

// AddContext adds context information to an error
func AddContext(err error, key string, value interface{}) error {
	if err == nil {
		return nil
	}

	// If already an ErrorWithContext, add to existing context
	var ctxErr *ErrorWithContext
	if errors.As(err, &ctxErr) {
		ctxErr.Context[key] = value
		return ctxErr
	}

	return &ErrorWithContext{
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}
