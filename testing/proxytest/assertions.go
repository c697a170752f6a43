//go:build !wasip1

package proxytest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosn/layotto/domain/entities"
)

// New builds an emulator for t and closes it when the test ends.
func New(t testing.TB, opts ...Option) *HostEmulator {
	t.Helper()
	e, err := NewHostEmulator(opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

// AssertLogged asserts that some message logged at level contains substr.
func AssertLogged(t testing.TB, e *HostEmulator, level entities.LogLevel, substr string, msgAndArgs ...any) bool {
	t.Helper()
	for _, msg := range e.Logs(level) {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return assert.Fail(t, "no "+level.String()+" log contains "+strings.TrimSpace(substr), msgAndArgs...)
}

// AssertNotLogged asserts that nothing was logged at level.
func AssertNotLogged(t testing.TB, e *HostEmulator, level entities.LogLevel, msgAndArgs ...any) bool {
	t.Helper()
	return assert.Empty(t, e.Logs(level), msgAndArgs...)
}

// AssertResponseBody asserts the response body the guest wrote.
func AssertResponseBody(t testing.TB, e *HostEmulator, want string, msgAndArgs ...any) bool {
	t.Helper()
	body, ok := e.ResponseBody()
	if !assert.True(t, ok, "no response body was written") {
		return false
	}
	return assert.Equal(t, want, string(body), msgAndArgs...)
}

// AssertNoResponseBody asserts that the guest left the response body alone.
func AssertNoResponseBody(t testing.TB, e *HostEmulator, msgAndArgs ...any) bool {
	t.Helper()
	_, ok := e.ResponseBody()
	return assert.False(t, ok, msgAndArgs...)
}
