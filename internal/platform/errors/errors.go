// Package errors provides error types and utilities for reconx.
// It extends the standard errors package with sentinel errors for the
// pipeline failure taxonomy and wrapping helpers.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline failure taxonomy.
var (
	// ErrStorage indicates an artifact store I/O failure. Fatal to the run;
	// previously committed artifacts are preserved.
	ErrStorage = errors.New("artifact storage failure")

	// ErrNotFound indicates a requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrToolTimeout indicates an external tool exceeded its time bound.
	ErrToolTimeout = errors.New("tool execution timed out")

	// ErrToolExecution indicates an external tool exited with a non-zero status.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrToolParse indicates tool output could not be parsed into records.
	ErrToolParse = errors.New("tool output parse failed")

	// ErrStageFailed indicates every adapter in a stage failed, so the stage
	// committed nothing and the pipeline cannot continue past it.
	ErrStageFailed = errors.New("stage failed")

	// ErrIncompleteRun indicates reporting against a run that is missing
	// committed stages. Non-fatal; report output is degraded.
	ErrIncompleteRun = errors.New("incomplete run")

	// ErrInvalidInput indicates invalid scope or configuration input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCanceled indicates the run was canceled before completion.
	ErrCanceled = errors.New("run canceled")
)

// wrappedError wraps an error with additional context.
type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: msg, cause: err}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: fmt.Sprintf(format, args...), cause: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf formats according to a format specifier and returns an error.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join returns an error that wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// IsStorage reports whether the error is an artifact storage error.
func IsStorage(err error) bool {
	return Is(err, ErrStorage)
}

// IsNotFound reports whether the error is a missing-artifact error.
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound)
}

// IsToolFailure reports whether the error is adapter-local: a timeout,
// a non-zero exit, or unparseable output.
func IsToolFailure(err error) bool {
	return Is(err, ErrToolTimeout) || Is(err, ErrToolExecution) || Is(err, ErrToolParse)
}

// IsStageFailed reports whether the error is a whole-stage failure.
func IsStageFailed(err error) bool {
	return Is(err, ErrStageFailed)
}

// IsIncompleteRun reports whether the error marks a degraded report.
func IsIncompleteRun(err error) bool {
	return Is(err, ErrIncompleteRun)
}

// IsInvalidInput reports whether the error is an invalid input error.
func IsInvalidInput(err error) bool {
	return Is(err, ErrInvalidInput)
}
