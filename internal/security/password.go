package security

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned by Seal when bcrypt cannot hash the input.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// Scheme selects how account passwords are stored and checked.
type Scheme string

const (
	// Plaintext stores the password verbatim and checks it by equality.
	// This is the default and the historical behavior of the service.
	Plaintext Scheme = "plaintext"
	// Bcrypt stores a bcrypt hash and checks with bcrypt.CompareHashAndPassword.
	Bcrypt Scheme = "bcrypt"
)

// ParseScheme maps a config value onto a Scheme. Empty selects Plaintext.
func ParseScheme(value string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(value))) {
	case "", Plaintext:
		return Plaintext, nil
	case Bcrypt:
		return Bcrypt, nil
	default:
		return "", fmt.Errorf("unknown password scheme %q", value)
	}
}

// Hashed reports whether stored passwords cannot be compared by equality.
func (s Scheme) Hashed() bool {
	return s == Bcrypt
}

// Seal converts a plaintext password into its stored form.
func (s Scheme) Seal(plain string) (string, error) {
	if !s.Hashed() {
		return plain, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Check reports whether plain matches the stored password.
func (s Scheme) Check(stored, plain string) bool {
	if !s.Hashed() {
		return stored == plain
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}
