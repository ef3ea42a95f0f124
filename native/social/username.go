package social

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 32
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]+$`)

// NormalizeUsername lowercases and validates a display name. Uniqueness is
// enforced against the normalised form so "Alice" and "alice" collide.
func NormalizeUsername(name string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	length := len(lower)
	if length < usernameMinLength || length > usernameMaxLength {
		return "", fmt.Errorf("%w: must be between %d and %d characters", ErrInvalidUsername, usernameMinLength, usernameMaxLength)
	}
	if !usernamePattern.MatchString(lower) {
		return "", fmt.Errorf("%w: allowed characters are [a-z0-9._-]", ErrInvalidUsername)
	}
	return lower, nil
}
