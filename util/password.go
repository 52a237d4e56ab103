package util

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword takes a plain-text password and returns a bcrypt hash.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks if a password meets the required security criteria.
func ValidatePassword(password string) error {
	// bcrypt ignores everything past 72 bytes
	if len(password) < 8 || len(password) > 72 {
		return errors.New("password must be between 8 and 72 characters")
	}
	if strings.Contains(password, " ") {
		return errors.New("password must not contain spaces")
	}
	if !hasRune(password, unicode.IsUpper) {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasRune(password, unicode.IsLower) {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasRune(password, unicode.IsDigit) {
		return errors.New("password must contain at least one digit")
	}
	if hasCommonPatterns(password) {
		return errors.New("password contains common patterns or easily guessable words")
	}
	return nil
}

func hasRune(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}

func hasCommonPatterns(password string) bool {
	lower := strings.ToLower(password)
	for _, pattern := range []string{"password", "123456", "qwerty", "welcome", "admin"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
