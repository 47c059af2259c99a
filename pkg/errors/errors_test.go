package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeAndMatchesTemplate(t *testing.T) {
	err := Clone(ErrInvalidStatus, "status 42 is unknown")

	assert.Equal(t, "INVALID_STATUS", err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "status 42 is unknown", err.Message)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "status is unknown or inactive", ErrInvalidStatus.Message)
}

func TestFromErrorWrapsUntypedErrors(t *testing.T) {
	raw := fmt.Errorf("boom")
	err := FromError(raw)

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, raw)
}

func TestFromErrorFindsWrappedTypedError(t *testing.T) {
	typed := Clone(ErrValidation, "firstName is required")
	err := FromError(fmt.Errorf("submit: %w", typed))

	assert.Same(t, typed, err)
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause, "failed to store case")

	assert.Equal(t, "failed to store case: disk full", err.Error())
	assert.True(t, errors.Is(err, ErrInternal))
}
