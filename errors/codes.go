package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Lifecycle errors
const (
	// ErrCodeInvalidState indicates an operation outside the Initialized state.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
)

// Registration errors
const (
	// ErrCodeDuplicateRegistration indicates a (scope, type, tag) collision.
	ErrCodeDuplicateRegistration ErrorCode = "DUPLICATE_REGISTRATION"
	// ErrCodeTypeNotFound indicates a type name missing from the type catalog.
	ErrCodeTypeNotFound ErrorCode = "TYPE_NOT_FOUND"
	// ErrCodeTypeMismatch indicates a value that is not assignable to the service type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeInvalidArgument indicates a malformed argument such as a nil instance.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Resolution errors
const (
	// ErrCodeServiceNotFound indicates a dependency with no matching registration.
	ErrCodeServiceNotFound ErrorCode = "SERVICE_NOT_FOUND"
	// ErrCodeAmbiguousInjectMethod indicates more than one injection method on a type level.
	ErrCodeAmbiguousInjectMethod ErrorCode = "AMBIGUOUS_INJECT_METHOD"
	// ErrCodeUnresolvableConstructor indicates that no constructor could be satisfied.
	ErrCodeUnresolvableConstructor ErrorCode = "UNRESOLVABLE_CONSTRUCTOR"
	// ErrCodeFactoryFailed indicates a service factory returned an error.
	ErrCodeFactoryFailed ErrorCode = "FACTORY_FAILED"
	// ErrCodeInvocationFailed indicates an injection method or constructor returned an error.
	ErrCodeInvocationFailed ErrorCode = "INVOCATION_FAILED"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates configuration that failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)
