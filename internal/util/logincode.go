package util

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// LoginCodeAlphabet excludes the visually ambiguous characters 0, O, 1 and I.
const LoginCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// LoginCodeLength is the fixed length of every generated login code.
const LoginCodeLength = 8

var loginCodePattern = regexp.MustCompile(fmt.Sprintf("^[%s]{%d}$", LoginCodeAlphabet, LoginCodeLength))

// NewLoginCode generates a random 8-character login code drawn from
// LoginCodeAlphabet. Uniqueness is the caller's concern.
func NewLoginCode() (string, error) {
	buf := make([]byte, LoginCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes for login code: %w", err)
	}
	for i, b := range buf {
		buf[i] = LoginCodeAlphabet[int(b)%len(LoginCodeAlphabet)]
	}
	return string(buf), nil
}

// IsValidLoginCode reports whether s is a well-formed login code.
func IsValidLoginCode(s string) bool {
	return loginCodePattern.MatchString(s)
}
