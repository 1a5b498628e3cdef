// Package errors provides a lightweight structured error type (ToolError)
// for category-based classification across the waftools commands.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a waftools error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig ErrorCategory = "config"
	CategoryModel  ErrorCategory = "model"

	// File emission errors
	CategoryExport ErrorCategory = "export"

	// External tool integration errors
	CategoryAnalysis ErrorCategory = "analysis"
	CategoryDocs     ErrorCategory = "docs"
	CategoryPackage  ErrorCategory = "package"
	CategoryTool     ErrorCategory = "tool"

	// Runtime and infrastructure errors
	CategoryIO       ErrorCategory = "io"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// ToolError is a structured error with category, severity and context
type ToolError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ToolError
type ContextFields map[string]any

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ToolError) WithContext(key string, value any) *ToolError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ToolError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ToolError {
	return &ToolError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new ToolError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ToolError {
	return &ToolError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapError wraps an existing error with severity SeverityError
func WrapError(err error, category ErrorCategory, message string) *ToolError {
	return &ToolError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if te, ok := err.(*ToolError); ok {
		return te.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a ToolError
func GetCategory(err error) ErrorCategory {
	if te, ok := err.(*ToolError); ok {
		return te.Category
	}
	return CategoryInternal
}

// ConfigError creates a new configuration error
func ConfigError(message string) *ToolError {
	return &ToolError{
		Category: CategoryConfig,
		Severity: SeverityError,
		Message:  message,
	}
}

// ModelError creates a new build-model validation error
func ModelError(message string) *ToolError {
	return &ToolError{
		Category: CategoryModel,
		Severity: SeverityError,
		Message:  message,
	}
}
