package core

import (
	"errors"
	"fmt"
)

// Code classifies a gateway error per the error taxonomy: each mutator API
// returns a distinguishable success/failure kind rather than a bare error
// string, so callers (and the out-of-scope CLI layer) can translate it to an
// exit code or a retry decision.
type Code int

const (
	// InvalidArgument marks a null/empty required input, an unknown
	// module/link reference, or a duplicate name. No side effects occur.
	InvalidArgument Code = iota
	// NotFound marks a referenced entity absent at the moment of lookup.
	// Idempotent removals treat this as silent success; lookups surface it.
	NotFound
	// AllocationFailure marks a resource-exhaustion failure in the
	// broker/controller/event path. The current operation is rolled back;
	// the broker stays live unless the failure occurred during Create/Destroy.
	AllocationFailure
	// LoaderFailure marks a loader refusing to load, returning a bad API,
	// or a module Create returning a nil instance.
	LoaderFailure
	// LifecycleViolation marks an operation that violates the lifecycle
	// contract: publish after detach, double-attach, etc.
	LifecycleViolation
	// ObserverFailure marks an internal error in the event dispatch path.
	ObserverFailure
)

func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case AllocationFailure:
		return "allocation_failure"
	case LoaderFailure:
		return "loader_failure"
	case LifecycleViolation:
		return "lifecycle_violation"
	case ObserverFailure:
		return "observer_failure"
	default:
		return "unknown"
	}
}

// Error is the gateway's typed error. It wraps an optional cause so
// errors.Is/errors.As keep working against sentinel errors from this
// package or from collaborators (loaders, modules).
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gatewaymux: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("gatewaymux: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Code, so callers can
// write errors.Is(err, core.ErrDuplicateModule) style checks against a
// class of failure rather than a single instance.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// NewError constructs an *Error of the given code.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError constructs an *Error of the given code, wrapping cause.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the Code from err if it (or something it wraps) is a
// *Error; otherwise ok is false.
func CodeOf(err error) (code Code, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// Sentinel errors, mirroring the teacher's package-level sentinel style
// (core/errors.go in the teacher module) but carrying a Code.
var (
	ErrModuleNotFound  = NewError(NotFound, "module not found")
	ErrLinkNotFound    = NewError(NotFound, "link not found")
	ErrDuplicateModule = NewError(InvalidArgument, "module name already registered")
	ErrDuplicateLink   = NewError(InvalidArgument, "link already exists")
	ErrBrokerClosed    = NewError(LifecycleViolation, "broker is closed")
	ErrAlreadyAttached = NewError(LifecycleViolation, "module already attached")
	ErrNotAttached     = NewError(LifecycleViolation, "module is not attached")
	ErrEmptyName       = NewError(InvalidArgument, "module name must not be empty")
	ErrNilMessage      = NewError(InvalidArgument, "message must not be nil")
	ErrNilModule       = NewError(InvalidArgument, "module instance must not be nil")
)
