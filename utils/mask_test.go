package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
	assert.Equal(t, "***", MaskEmail("@example.com"))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "abcd...", MaskToken("abcdefghijkl"))
	assert.Equal(t, "****", MaskToken("abcd"))
	assert.Equal(t, "****", MaskToken(""))
}
