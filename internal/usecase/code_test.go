package usecase

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateCode_SixDigitsInRange(t *testing.T) {
	for range 2000 {
		code, err := generateCode()
		require.NoError(t, err)

		assert.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestGenerateCode_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		code, err := generateCode()
		require.NoError(t, err)
		seen[code] = true
	}

	assert.Greater(t, len(seen), 1)
}

func TestWellFormed(t *testing.T) {
	assert.True(t, wellFormed("123456"))
	assert.False(t, wellFormed("12345"))
	assert.False(t, wellFormed("1234567"))
	assert.False(t, wellFormed("12a456"))
	assert.False(t, wellFormed("١٢٣٤٥٦"))
	assert.False(t, wellFormed(""))
}

func TestMatchCode(t *testing.T) {
	hash, err := hashCode("482913", bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := matchCode(hash, "482913")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matchCode(hash, "482914")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = matchCode(hash, "not-a-code")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchCode_CorruptHash(t *testing.T) {
	_, err := matchCode("garbage", "482913")

	assert.Error(t, err)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", resultLabel(nil))
	assert.Equal(t, "invalid_code", resultLabel(ErrInvalidCode))
	assert.Equal(t, "unavailable", resultLabel(unavailable("op", assert.AnError)))
}
