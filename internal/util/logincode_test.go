package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoginCode_AlphabetAndLength(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := NewLoginCode()
		assert.NoError(t, err)
		assert.Len(t, code, LoginCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(LoginCodeAlphabet, r),
				"code %q contains %q which is outside the alphabet", code, r)
		}
	}
}

func TestNewLoginCode_NoAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewLoginCode()
		assert.NoError(t, err)
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
	}
}

func TestIsValidLoginCode(t *testing.T) {
	assert.True(t, IsValidLoginCode("ABCDEFGH"))
	assert.True(t, IsValidLoginCode("23456789"))
	assert.False(t, IsValidLoginCode("ABCDEFG"))   // too short
	assert.False(t, IsValidLoginCode("ABCDEFGHI")) // too long
	assert.False(t, IsValidLoginCode("ABCDEFG0"))  // ambiguous zero
	assert.False(t, IsValidLoginCode("abcdefgh"))  // lowercase
	assert.False(t, IsValidLoginCode(""))
}
