package hostfuncs

import (
	"errors"
	"fmt"

	"github.com/mosn/layotto/domain/entities"
)

// ErrFunctionNotFound is returned by HandlerRegistry.Invoke for unknown names.
var ErrFunctionNotFound = errors.New("function not found")

// StatusError lets a handler choose the status reported to the guest.
type StatusError struct {
	Err    error
	Status entities.Status
}

// NewStatusError wraps err with status.
func NewStatusError(status entities.Status, err error) *StatusError {
	return &StatusError{Status: status, Err: err}
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %v", e.Status, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusOf maps a handler error onto the status returned to the guest.
// A nil error is Ok, ErrFunctionNotFound is NotFound, a StatusError carries
// its own status and anything else is an InternalFailure.
func StatusOf(err error) entities.Status {
	if err == nil {
		return entities.StatusOK
	}
	if errors.Is(err, ErrFunctionNotFound) {
		return entities.StatusNotFound
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return entities.StatusInternalFailure
}
