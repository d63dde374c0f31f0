package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError is the error type returned by every lifescope package.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code, so the
// package sentinels match any error of their kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Sentinels for errors.Is. They carry only a code.
var (
	ErrInvalidState            = &AppError{Code: ErrCodeInvalidState}
	ErrDuplicateRegistration   = &AppError{Code: ErrCodeDuplicateRegistration}
	ErrServiceNotFound         = &AppError{Code: ErrCodeServiceNotFound}
	ErrAmbiguousInjectMethod   = &AppError{Code: ErrCodeAmbiguousInjectMethod}
	ErrUnresolvableConstructor = &AppError{Code: ErrCodeUnresolvableConstructor}
	ErrTypeNotFound            = &AppError{Code: ErrCodeTypeNotFound}
	ErrTypeMismatch            = &AppError{Code: ErrCodeTypeMismatch}
	ErrFactoryFailed           = &AppError{Code: ErrCodeFactoryFailed}
	ErrInvocationFailed        = &AppError{Code: ErrCodeInvocationFailed}
	ErrInvalidArgument         = &AppError{Code: ErrCodeInvalidArgument}
	ErrInvalidConfig           = &AppError{Code: ErrCodeInvalidConfig}
)

// CodeOf returns the code of the first *AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether any *AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &AppError{Code: code})
}

// --- Constructors ---

// InvalidState creates an error for an operation attempted in the wrong lifecycle state.
func InvalidState(operation, state string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("%s requires an initialized container (state: %s)", operation, state),
		Details: map[string]any{"operation": operation, "state": state},
	}
}

// DuplicateRegistration creates an error for a (scope, type, tag) collision.
func DuplicateRegistration(serviceType, tag, scope string) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateRegistration,
		Message: fmt.Sprintf("service %s with tag %q is already registered in scope %s", serviceType, tag, scope),
		Details: map[string]any{"service_type": serviceType, "tag": tag, "scope": scope},
	}
}

// ServiceNotFound creates an error for a dependency with no matching registration.
func ServiceNotFound(serviceType, tag string) *AppError {
	return &AppError{
		Code:    ErrCodeServiceNotFound,
		Message: fmt.Sprintf("no service registered for %s with tag %q", serviceType, tag),
		Details: map[string]any{"service_type": serviceType, "tag": tag},
	}
}

// AmbiguousInjectMethod creates an error for a type level exposing several injection methods.
func AmbiguousInjectMethod(typeName string, methods []string) *AppError {
	return &AppError{
		Code:    ErrCodeAmbiguousInjectMethod,
		Message: fmt.Sprintf("type %s declares more than one injection method: %s", typeName, strings.Join(methods, ", ")),
		Details: map[string]any{"type": typeName, "methods": methods},
	}
}

// UnresolvableConstructor creates an error for a type none of whose constructors could be satisfied.
func UnresolvableConstructor(typeName string, candidates int) *AppError {
	return &AppError{
		Code:    ErrCodeUnresolvableConstructor,
		Message: fmt.Sprintf("none of the %d constructors of %s could be satisfied", candidates, typeName),
		Details: map[string]any{"type": typeName, "candidates": candidates},
	}
}

// TypeNotFound creates an error for a type name the catalog does not know.
func TypeNotFound(name string) *AppError {
	return &AppError{
		Code:    ErrCodeTypeNotFound,
		Message: fmt.Sprintf("type %q is not declared", name),
		Details: map[string]any{"type": name},
	}
}

// TypeMismatch creates an error for a value that cannot stand in for the expected type.
func TypeMismatch(expected, actual string) *AppError {
	return &AppError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("%s is not assignable to %s", actual, expected),
		Details: map[string]any{"expected": expected, "actual": actual},
	}
}

// FactoryFailed creates an error for a service factory that returned an error.
func FactoryFailed(serviceType string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeFactoryFailed,
		Message: fmt.Sprintf("factory for %s failed", serviceType),
		Details: map[string]any{"service_type": serviceType},
		Cause:   cause,
	}
}

// InvocationFailed creates an error for an injection method or constructor that returned an error.
func InvocationFailed(member string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInvocationFailed,
		Message: fmt.Sprintf("%s returned an error", member),
		Details: map[string]any{"member": member},
		Cause:   cause,
	}
}

// InvalidArgument creates an error for a malformed argument.
func InvalidArgument(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("Invalid argument: %s", reason),
		Details: details,
	}
}

// InvalidConfig creates an error for configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}
