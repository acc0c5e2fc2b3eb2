// Package errors provides comprehensive error handling utilities for dimarray.
//
// This file contains panic recovery utilities used around caller-supplied
// reduction functions, converting unexpected panics into structured errors
// with debugging information.

package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError represents an error that was created from a recovered panic.
// It includes the original panic value and stack trace information.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap returns nil as PanicError doesn't wrap another error by default.
func (e *PanicError) Unwrap() error {
	return nil
}

// String provides detailed information including stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a new PanicError with the given operation context and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover is a utility function to be used with defer to recover from panics
// and convert them into errors. It includes stack trace information for
// debugging. The group/resample engine uses it around arbitrary reduction
// functions supplied by callers, so a panicking aggregation surfaces as an
// error instead of tearing the process down.
//
// Usage:
//
//	func (g *GroupBy) Reduce(fn ReduceFunc) (result *DataArray, err error) {
//	    defer errors.Recover(&err, "GroupBy.Reduce")
//	    ...
//	}
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		*err = WithStack(NewPanicError(operation, r))
	}
}
