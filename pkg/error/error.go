package error

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by who is expected to act on them.
// None of the categories are retried automatically by this module.
type ErrorCategory int

const (
	// ErrCategoryProgrammer represents defects in the calling layer, typically
	// compiler-generated field access or lock/unlock pairing.
	// Examples: out-of-bounds field index, kind mismatch, release without ownership,
	// acquiring without a worker identity.
	ErrCategoryProgrammer ErrorCategory = iota

	// ErrCategoryLifecycle represents operations attempted at the wrong point of a
	// structure's life, such as tearing down a structure whose fields are still held.
	ErrCategoryLifecycle

	// ErrCategoryConcurrency represents a worker being withdrawn while it waited
	// for a field lock (context cancellation or scheduler shutdown).
	ErrCategoryConcurrency
)

// String returns the category name used in log output.
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryProgrammer:
		return "programmer"
	case ErrCategoryLifecycle:
		return "lifecycle"
	case ErrCategoryConcurrency:
		return "concurrency"
	default:
		return "unknown"
	}
}

// Error codes.
const (
	CodeOutOfBounds     = "OUT_OF_BOUNDS"
	CodeTypeMismatch    = "TYPE_MISMATCH"
	CodeNotOwner        = "NOT_OWNER"
	CodeFieldNotFound   = "FIELD_NOT_FOUND"
	CodeStructureBusy   = "STRUCTURE_BUSY"
	CodeStructureClosed = "STRUCTURE_CLOSED"
	CodeCancelled       = "CANCELLED"
	CodeInvalidShape    = "INVALID_SHAPE"
	CodeInvalidWorker   = "INVALID_WORKER"
)

// Sentinels for errors.Is. They carry no stack and are never returned directly.
var (
	ErrOutOfBounds     = &RuntimeError{Code: CodeOutOfBounds, Category: ErrCategoryProgrammer}
	ErrTypeMismatch    = &RuntimeError{Code: CodeTypeMismatch, Category: ErrCategoryProgrammer}
	ErrNotOwner        = &RuntimeError{Code: CodeNotOwner, Category: ErrCategoryProgrammer}
	ErrFieldNotFound   = &RuntimeError{Code: CodeFieldNotFound, Category: ErrCategoryProgrammer}
	ErrInvalidShape    = &RuntimeError{Code: CodeInvalidShape, Category: ErrCategoryProgrammer}
	ErrInvalidWorker   = &RuntimeError{Code: CodeInvalidWorker, Category: ErrCategoryProgrammer}
	ErrStructureBusy   = &RuntimeError{Code: CodeStructureBusy, Category: ErrCategoryLifecycle}
	ErrStructureClosed = &RuntimeError{Code: CodeStructureClosed, Category: ErrCategoryLifecycle}
	ErrCancelled       = &RuntimeError{Code: CodeCancelled, Category: ErrCategoryConcurrency}
)

// RuntimeError represents a structured value-model error with rich context information.
type RuntimeError struct {
	// Code is a unique identifier for this error type (e.g., "NOT_OWNER").
	Code string

	// Category classifies the error for handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	// Example: "int field 4 of structure 12 (3 int fields)".
	Detail string

	// Hint suggests how the caller might fix the defect.
	Hint string

	// Operation identifies the operation being performed, e.g. "Set", "Release", "Acquire".
	Operation string

	// Component identifies where the error originated, e.g. "FieldStore", "LockTable".
	Component string

	// Cause is the underlying error, if any.
	Cause error

	// Stack contains the call stack where this error was created.
	Stack []uintptr
}

// New creates a new RuntimeError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *RuntimeError {
	return &RuntimeError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Wrap wraps an existing error with value-model context information.
// If the error is already a RuntimeError, it enriches the existing error with
// operation and component context (only if not already set).
func Wrap(err error, code, operation, component string) *RuntimeError {
	if err == nil {
		return nil
	}

	if rtErr, ok := err.(*RuntimeError); ok {
		if rtErr.Operation == "" {
			rtErr.Operation = operation
		}
		if rtErr.Component == "" {
			rtErr.Component = component
		}
		return rtErr
	}

	category := ErrCategoryProgrammer
	if code == CodeCancelled {
		category = ErrCategoryConcurrency
	}

	return &RuntimeError{
		Code:      code,
		Category:  category,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// OutOfBounds reports an invalid (kind, index) pair.
func OutOfBounds(component, operation string, kind fmt.Stringer, index, size int) *RuntimeError {
	err := New(ErrCategoryProgrammer, CodeOutOfBounds, "field index out of bounds")
	err.Detail = fmt.Sprintf("%s field %d (have %d)", kind, index, size)
	err.Operation = operation
	err.Component = component
	return err
}

// TypeMismatch reports a value whose runtime kind disagrees with the field kind.
func TypeMismatch(component, operation string, want, got fmt.Stringer) *RuntimeError {
	err := New(ErrCategoryProgrammer, CodeTypeMismatch, "value kind does not match field kind")
	err.Detail = fmt.Sprintf("field is %s, value is %s", want, got)
	err.Operation = operation
	err.Component = component
	return err
}

// NotOwner reports a release by a worker that does not own the entry.
func NotOwner(component, operation, detail string) *RuntimeError {
	err := New(ErrCategoryProgrammer, CodeNotOwner, "lock released by a worker that does not own it")
	err.Detail = detail
	err.Hint = "every release must pair with an acquire by the same worker"
	err.Operation = operation
	err.Component = component
	return err
}

// captureStack skips captureStack, the constructor and its immediate caller.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *RuntimeError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling error chain traversal
// with errors.Is and errors.As.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a RuntimeError with the same code.
func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *RuntimeError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n",
			f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}
