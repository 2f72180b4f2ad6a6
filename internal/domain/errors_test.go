package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("join: %w", Validation("This game is full."))

	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "This game is full.", Reason(err))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestUnavailableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable(cause)

	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.ErrorIs(t, err, cause)
}
