package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcrypt truncates passwords at 72 bytes. We enforce this explicitly to avoid
	// user confusion and inconsistent login behavior.
	bcryptMaxPasswordBytes = 72
	MinPasswordChars       = 8
)

// PasswordValidationError is returned for passwords that break the length rules.
type PasswordValidationError struct {
	Reason string
}

func (e *PasswordValidationError) Error() string { return e.Reason }

func IsPasswordValidationError(err error) bool {
	var pv *PasswordValidationError
	return errors.As(err, &pv)
}

// HashPassword hashes a plaintext password using bcrypt.
//
// Validation:
// - Must be at least MinPasswordChars characters.
// - Must be <= bcryptMaxPasswordBytes bytes when encoded as UTF-8.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", &PasswordValidationError{Reason: "password required"}
	}
	if utf8.RuneCountInString(plain) < MinPasswordChars {
		return "", &PasswordValidationError{Reason: fmt.Sprintf("password must be at least %d characters", MinPasswordChars)}
	}
	if len([]byte(plain)) > bcryptMaxPasswordBytes {
		return "", &PasswordValidationError{Reason: fmt.Sprintf("password too long: bcrypt only supports up to %d bytes (UTF-8); shorten the password", bcryptMaxPasswordBytes)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ComparePasswordHash(hash string, plain string) error {
	if plain == "" {
		return &PasswordValidationError{Reason: "password required"}
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
