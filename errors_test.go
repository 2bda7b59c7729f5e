package tutorkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientError(t *testing.T) {
	err := &ClientError{Reason: "geo must be one of the allowed kinds", Retryable: false}
	assert.Equal(t, "invalid tool input: geo must be one of the allowed kinds", err.Error())
	assert.True(t, IsClientError(err))
	assert.False(t, IsSystemError(err))
}

func TestInvalid_WrapsValidation(t *testing.T) {
	err := Invalid("gap %d out of range", 3)
	require.ErrorIs(t, err, ErrValidation)
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "gap 3 out of range", ce.Reason)
}

func TestSystemError_HidesCause(t *testing.T) {
	cause := errors.New("surface unavailable")
	err := &SystemError{Err: cause}
	assert.Equal(t, "internal system error during tool execution", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsSystemError(fmt.Errorf("wrapped: %w", err)))
}

func TestWrapHandlerError(t *testing.T) {
	assert.NoError(t, wrapHandlerError(nil))
	ce := Invalid("bad")
	assert.Same(t, ce, wrapHandlerError(ce))
	assert.True(t, IsSystemError(wrapHandlerError(errors.New("boom"))))
}
