package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime Category = "runtime"
	CategoryData    Category = "data"
	CategoryScript  Category = "script"
	CategoryExport  Category = "export"
	CategoryConfig  Category = "config"
	CategoryServer  Category = "server"
	CategoryCLI     Category = "cli"
)

// FormaError is a structured error with a stable code, a suggestion,
// and a documentation link.
type FormaError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (runtime, data, config, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *FormaError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *FormaError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *FormaError) WithSuggestion(s string) *FormaError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *FormaError) WithDetail(d string) *FormaError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *FormaError) Wrap(err error) *FormaError {
	e.Wrapped = err
	return e
}

// New creates a FormaError from a registered error code.
func New(code string) *FormaError {
	template, ok := registry[code]
	if !ok {
		return &FormaError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &FormaError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new FormaError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *FormaError {
	return &FormaError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a FormaError.
func FromError(err error, code string) *FormaError {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FormaError); ok {
		return fe
	}
	return New(code).Wrap(err)
}
