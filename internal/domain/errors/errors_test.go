package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := ErrUserNotFound.WithContext("id", 7)

	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.False(t, errors.Is(err, ErrPhotoNotFound))
	assert.True(t, IsNotFound(err))
	assert.True(t, IsUserNotFound(fmt.Errorf("lookup: %w", err)))
}

func TestDomainError_WithContextDoesNotMutateShared(t *testing.T) {
	_ = ErrLikeNotFound.WithContext("liker", 1)

	assert.Empty(t, ErrLikeNotFound.Context)
}

func TestStoreFailure(t *testing.T) {
	cause := errors.New("connection refused")

	err := StoreFailure("failed to list users", cause)
	assert.True(t, IsStoreFailure(err))
	assert.ErrorIs(t, err, cause)

	// domain errors pass through untouched
	assert.Same(t, ErrUserNotFound, StoreFailure("failed", ErrUserNotFound))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(InvalidArgument("pageSize", "page size must be positive")))
	assert.True(t, IsValidationError(ErrValidationFailed))
	assert.False(t, IsValidationError(ErrUserNotFound))
	assert.False(t, IsValidationError(errors.New("plain")))
}
