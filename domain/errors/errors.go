// Package errors provides the error vocabulary of the bridge.
// All error types support unwrapping via errors.As() and errors.Is().
//
// Errors fall in two classes. Fatal errors mean the host and the guest
// disagree on the protocol; they must never be masked or retried. Every
// other error is an ordinary application failure.
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/mosn/layotto/domain/entities"
)

// Sentinel causes of a ContractViolationError.
var (
	ErrDuplicateContextID  = stdErrors.New("duplicate context id")
	ErrUnknownContextID    = stdErrors.New("unknown context id")
	ErrUnknownRootContext  = stdErrors.New("unknown root context id")
	ErrMissingRootFactory  = stdErrors.New("no root context factory registered")
	ErrFactoryReturnedNone = stdErrors.New("context factory returned no context")
	ErrUnknownContextType  = stdErrors.New("root context declares no context type")
)

// FatalError is implemented by errors that signal an unrecoverable
// protocol violation. New fatal error types only need to implement it
// for IsFatal to recognise them.
type FatalError interface {
	error
	Fatal() bool
}

// IsFatal reports whether err, or any error it wraps, is fatal.
func IsFatal(err error) bool {
	var fe FatalError
	if stdErrors.As(err, &fe) {
		return fe.Fatal()
	}
	return false
}

// ContractViolationError is raised by the dispatcher when a host event does
// not fit the registry state.
type ContractViolationError struct {
	Err       error
	ContextID uint32
	ParentID  uint32
}

func (e *ContractViolationError) Error() string {
	if e.ParentID != 0 {
		return fmt.Sprintf("contract violation: %v (context_id=%d, parent_context_id=%d)", e.Err, e.ContextID, e.ParentID)
	}
	return fmt.Sprintf("contract violation: %v (context_id=%d)", e.Err, e.ContextID)
}

func (e *ContractViolationError) Unwrap() error {
	return e.Err
}

// Fatal implements FatalError.
func (e *ContractViolationError) Fatal() bool { return true }

// UnexpectedHostStatusError is returned by a host-call wrapper when the host
// answers with a status other than Ok or NotFound.
type UnexpectedHostStatusError struct {
	Call   string
	Status entities.Status
}

func (e *UnexpectedHostStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected host status %s (%d)", e.Call, e.Status, uint32(e.Status))
}

// Fatal implements FatalError.
func (e *UnexpectedHostStatusError) Fatal() bool { return true }

// InvalidUTF8Error is returned when the host hands back bytes that must be
// text but are not valid UTF-8.
type InvalidUTF8Error struct {
	Call string
	Key  string
}

func (e *InvalidUTF8Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: value of %q is not valid utf-8", e.Call, e.Key)
	}
	return fmt.Sprintf("%s: value is not valid utf-8", e.Call)
}

// Fatal implements FatalError.
func (e *InvalidUTF8Error) Fatal() bool { return true }

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// MemoryError represents a guest memory allocation failure.
type MemoryError struct {
	Requested int // Requested allocation size
	Current   int // Current total allocated
	Limit     int // Maximum allowed
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory allocation failed: requested %d bytes, current %d bytes, limit %d bytes",
		e.Requested, e.Current, e.Limit)
}

// Fatal implements FatalError.
func (e *MemoryError) Fatal() bool { return true }
