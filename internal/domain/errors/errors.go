// Package errors provides domain-specific error types.
package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error codes for domain errors.
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeConfiguration   = "CONFIGURATION_ERROR"
	ErrCodeArgument        = "ARGUMENT_ERROR"
	ErrCodeResolution      = "RESOLUTION_ERROR"
	ErrCodeBindingConflict = "BINDING_CONFLICT"
	ErrCodeCommand         = "COMMAND_ERROR"
	ErrCodeKey             = "KEY_ERROR"
)

// DomainError represents a domain-specific error.
type DomainError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, identifier string) *DomainError {
	return &DomainError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    identifier,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeInternal,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConfigurationError creates an error for a configuration value of the wrong shape.
func NewConfigurationError(message string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeConfiguration,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewArgumentError creates an error for a verb call whose arguments match no accepted shape.
func NewArgumentError(verb string, details string) *DomainError {
	return &DomainError{
		Code:       ErrCodeArgument,
		Message:    fmt.Sprintf("invalid arguments for %s", verb),
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewResolutionError creates an error for a backend selector that cannot be resolved.
func NewResolutionError(selector string) *DomainError {
	return &DomainError{
		Code:       ErrCodeResolution,
		Message:    "cannot resolve cache backend",
		Details:    selector,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewBindingConflictError creates an error for a host that already carries a cache manager.
func NewBindingConflictError() *DomainError {
	return &DomainError{
		Code:       ErrCodeBindingConflict,
		Message:    "host is already bound to another cache manager",
		HTTPStatus: http.StatusConflict,
	}
}

// NewCommandError wraps an error returned by the store for the given command.
func NewCommandError(command string, err error) *DomainError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &DomainError{
		Code:       ErrCodeCommand,
		Message:    fmt.Sprintf("execute command %s failed", command),
		Details:    details,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewKeyError creates an error for a failed lookup or mutation of a key.
// A missing key is not an error.
func NewKeyError(key string, err error) *DomainError {
	return &DomainError{
		Code:       ErrCodeKey,
		Message:    "key operation failed",
		Details:    key,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsDomainError checks if the error is a domain error.
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error.
func GetDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	domainErr, ok := GetDomainError(err)
	return ok && domainErr.Code == code
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsConfigurationError checks if the error is a configuration error.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsArgumentError checks if the error is an argument error.
func IsArgumentError(err error) bool {
	return hasCode(err, ErrCodeArgument)
}

// IsResolutionError checks if the error is a resolution error.
func IsResolutionError(err error) bool {
	return hasCode(err, ErrCodeResolution)
}

// IsBindingConflict checks if the error is a binding conflict error.
func IsBindingConflict(err error) bool {
	return hasCode(err, ErrCodeBindingConflict)
}

// IsCommandError checks if the error is a command error.
func IsCommandError(err error) bool {
	return hasCode(err, ErrCodeCommand)
}

// IsKeyError checks if the error is a key error.
func IsKeyError(err error) bool {
	return hasCode(err, ErrCodeKey)
}
