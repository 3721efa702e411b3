package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, ComparePasswordHash(hash, "correct horse"))
	assert.Error(t, ComparePasswordHash(hash, "wrong horse"))
}

func TestHashPassword_Validation(t *testing.T) {
	for name, pw := range map[string]string{
		"empty":    "",
		"short":    "short",
		"too long": strings.Repeat("a", 73),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := HashPassword(pw)
			require.Error(t, err)
			assert.True(t, IsPasswordValidationError(err))
		})
	}
}

func TestComparePasswordHash_Empty(t *testing.T) {
	err := ComparePasswordHash("$2a$10$whatever", "")
	assert.True(t, IsPasswordValidationError(err))
}
