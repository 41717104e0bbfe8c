//go:build nosmote

package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUnavailable(t *testing.T) {
	assert.False(t, Available())
	_, err := New(5, 42)
	assert.ErrorIs(t, err, ErrUnavailable)
}
