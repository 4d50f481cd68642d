package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("deleting category: %w", NewDomainError("REFERENCED", "cannot delete"))

	assert.True(t, errors.Is(wrapped, ErrReferenced))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "cannot delete", errors.Unwrap(wrapped).Error())
}
