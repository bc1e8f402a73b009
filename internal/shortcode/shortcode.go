// Package shortcode generates short codes and validates aliases and
// target URLs for the allocation path.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"regexp"

	apperrors "github.com/shortly-io/shortly/internal/errors"
)

// charset is the base62 alphabet used for generated codes.
// 62^6 is ~56 billion combinations at the default length of 6, so a
// collision is a retry, not a design problem.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the length of generated codes.
const DefaultLength = 6

// MinAliasLength is the minimum accepted custom alias length.
const MinAliasLength = 3

// MaxAliasLength matches the short_code column size.
const MaxAliasLength = 50

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Generate produces a cryptographically random base62 code of the given
// length.
func Generate(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// ValidAlias reports whether a caller-supplied alias satisfies the alias
// policy: 3 to 50 characters from [A-Za-z0-9_-].
func ValidAlias(alias string) bool {
	if len(alias) < MinAliasLength || len(alias) > MaxAliasLength {
		return false
	}
	return aliasPattern.MatchString(alias)
}

// ValidateAlias is the error-returning form of ValidAlias.
func ValidateAlias(alias string) error {
	if !ValidAlias(alias) {
		return apperrors.ErrInvalidAlias
	}
	return nil
}

// ValidateURL checks that the target parses as an absolute URL with an
// http or https scheme and a non-empty host. Runs before any store
// mutation.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return apperrors.ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.ErrInvalidURL
	}
	return nil
}
