// Package errors provides structured error types for taskdash.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for taskdash.
const (
	CodeUnknown Code = "UNKNOWN"

	// Config errors
	CodeConfigMissing Code = "CONFIG_MISSING"
	CodeConfigInvalid Code = "CONFIG_INVALID"

	// Asana errors
	CodeUnauthorized    Code = "ASANA_UNAUTHORIZED"
	CodeProjectNotFound Code = "ASANA_PROJECT_NOT_FOUND"
	CodeFetchFailed     Code = "ASANA_FETCH_FAILED"
	CodeTimeout         Code = "ASANA_TIMEOUT"
	CodeBadResponse     Code = "ASANA_BAD_RESPONSE"
)

// Category groups error codes for HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryUnauthorized
	CategoryBadGateway
	CategoryTimeout
)

var codeCategories = map[Code]Category{
	CodeConfigMissing:   CategoryBadRequest,
	CodeConfigInvalid:   CategoryBadRequest,
	CodeUnauthorized:    CategoryUnauthorized,
	CodeProjectNotFound: CategoryNotFound,
	CodeFetchFailed:     CategoryBadGateway,
	CodeTimeout:         CategoryTimeout,
	CodeBadResponse:     CategoryBadGateway,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNotFound:
		return 404
	case CategoryBadRequest:
		return 400
	case CategoryUnauthorized:
		return 401
	case CategoryBadGateway:
		return 502
	case CategoryTimeout:
		return 504
	default:
		return 500
	}
}

// DashError is the structured error type for taskdash.
type DashError struct {
	Code  Code
	What  string
	Why   string
	Fix   string
	Cause error
}

// Error implements the error interface.
func (e *DashError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *DashError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *DashError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category for HTTP status mapping.
func (e *DashError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *DashError) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// Is reports whether target is a DashError with the same code.
func (e *DashError) Is(target error) bool {
	t, ok := target.(*DashError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *DashError) WithCause(err error) *DashError {
	return &DashError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrConfigMissing returns an error for a required setting that is not set.
func ErrConfigMissing(field, envVar string) *DashError {
	fix := fmt.Sprintf("Set '%s' in taskdash.yaml", field)
	if envVar != "" {
		fix = fmt.Sprintf("Export %s or set '%s' in taskdash.yaml", envVar, field)
	}
	return &DashError{
		Code: CodeConfigMissing,
		What: fmt.Sprintf("missing required configuration: %s", field),
		Why:  "This field is required but not set in configuration or environment",
		Fix:  fix,
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *DashError {
	return &DashError{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration: %s", field),
		Why:  reason,
		Fix:  "Check taskdash.yaml and TASKDASH_* environment variables",
	}
}

// ErrUnauthorized returns an error when Asana rejects the access token.
func ErrUnauthorized(reason string) *DashError {
	return &DashError{
		Code: CodeUnauthorized,
		What: "Asana rejected the access token",
		Why:  reason,
		Fix:  "Create a personal access token in Asana and export it as ASANA_TOKEN",
	}
}

// ErrProjectNotFound returns an error when the configured project does not exist.
func ErrProjectNotFound(projectID, reason string) *DashError {
	return &DashError{
		Code: CodeProjectNotFound,
		What: fmt.Sprintf("Asana project %s not found", projectID),
		Why:  reason,
		Fix:  "Check ASANA_PROJECT and that the token's user can see the project",
	}
}

// ErrFetchFailed returns an error for any other failed task listing.
func ErrFetchFailed(projectID string, cause error) *DashError {
	return &DashError{
		Code:  CodeFetchFailed,
		What:  fmt.Sprintf("list tasks for project %s", projectID),
		Cause: cause,
	}
}

// ErrTimeout returns an error when the Asana call ran out of time.
func ErrTimeout(projectID string, cause error) *DashError {
	return &DashError{
		Code:  CodeTimeout,
		What:  fmt.Sprintf("list tasks for project %s timed out", projectID),
		Fix:   "Increase asana.timeout or check connectivity to app.asana.com",
		Cause: cause,
	}
}

// ErrBadResponse returns an error when an Asana response cannot be decoded.
func ErrBadResponse(reason string) *DashError {
	return &DashError{
		Code: CodeBadResponse,
		What: "unexpected response from Asana",
		Why:  reason,
	}
}

// AsDashError attempts to convert an error to a DashError.
// Returns nil if the error is not a DashError.
func AsDashError(err error) *DashError {
	var dashErr *DashError
	if stderrors.As(err, &dashErr) {
		return dashErr
	}
	return nil
}

// CodeOf returns the code of err, or CodeUnknown for plain errors.
func CodeOf(err error) Code {
	if dashErr := AsDashError(err); dashErr != nil {
		return dashErr.Code
	}
	return CodeUnknown
}
