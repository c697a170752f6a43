package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mosn/layotto/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractViolationError(t *testing.T) {
	err := &ContractViolationError{Err: ErrDuplicateContextID, ContextID: 7}

	assert.Equal(t, "contract violation: duplicate context id (context_id=7)", err.Error())
	assert.True(t, errors.Is(err, ErrDuplicateContextID))
	assert.False(t, errors.Is(err, ErrUnknownContextID))
	assert.True(t, IsFatal(err))
}

func TestContractViolationError_WithParent(t *testing.T) {
	err := &ContractViolationError{Err: ErrUnknownRootContext, ContextID: 2, ParentID: 9}

	assert.Equal(t, "contract violation: unknown root context id (context_id=2, parent_context_id=9)", err.Error())

	var cv *ContractViolationError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &cv))
	assert.Equal(t, uint32(9), cv.ParentID)
}

func TestUnexpectedHostStatusError(t *testing.T) {
	err := &UnexpectedHostStatusError{Call: "proxy_invoke_service", Status: entities.StatusInternalFailure}

	assert.Equal(t, "proxy_invoke_service: unexpected host status InternalFailure (10)", err.Error())
	assert.True(t, IsFatal(fmt.Errorf("invoke: %w", err)))

	var hs *UnexpectedHostStatusError
	require.True(t, errors.As(err, &hs))
	assert.Equal(t, entities.StatusInternalFailure, hs.Status)
}

func TestInvalidUTF8Error(t *testing.T) {
	assert.Equal(t, `proxy_get_header_map_value: value of "name" is not valid utf-8`,
		(&InvalidUTF8Error{Call: "proxy_get_header_map_value", Key: "name"}).Error())
	assert.Equal(t, "proxy_get_state: value is not valid utf-8",
		(&InvalidUTF8Error{Call: "proxy_get_state"}).Error())
}

func TestConfigError(t *testing.T) {
	baseErr := fmt.Errorf("must not be empty")
	err := &ConfigError{Field: "target_service", Err: baseErr}

	assert.Equal(t, "config validation failed for field 'target_service': must not be empty", err.Error())
	assert.True(t, errors.Is(err, baseErr))
	assert.False(t, IsFatal(err))
}

func TestMemoryError(t *testing.T) {
	err := &MemoryError{Requested: 2048, Current: 512, Limit: 1024}
	assert.Equal(t, "memory allocation failed: requested 2048 bytes, current 512 bytes, limit 1024 bytes", err.Error())
	assert.True(t, IsFatal(err))
}

func TestIsFatal_PlainError(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(errors.New("boom")))
}
