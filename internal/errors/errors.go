// Package errors defines the typed error taxonomy for the URL shortener.
// Transport layers map these to status codes at the edge; internal
// components never see raw transport or driver failures.
package errors

import (
	"errors"
	"fmt"
)

// Allocation errors.
var (
	// ErrInvalidURL is returned when the submitted URL is not an
	// absolute http/https URL.
	ErrInvalidURL = errors.New("invalid URL: must be absolute with http or https scheme")

	// ErrInvalidAlias is returned when a custom alias violates the
	// alias policy (3+ characters from [A-Za-z0-9_-]).
	ErrInvalidAlias = errors.New("invalid custom alias format")

	// ErrAliasConflict is returned when a caller-supplied alias is
	// already taken. The requested alias is never suffixed or mutated.
	ErrAliasConflict = errors.New("custom alias already exists")

	// ErrDuplicateCode is the store-level collision signal surfaced by
	// the unique constraint on short_code. The generator consumes it to
	// decide between retrying with a fresh code and reporting a genuine
	// alias conflict.
	ErrDuplicateCode = errors.New("short code already exists")

	// ErrGenerationExhausted is returned when collision retries run out.
	// Operational condition, not expected at normal table sizes.
	ErrGenerationExhausted = errors.New("failed to generate unique short code")
)

// Resolution and lookup errors.
var (
	// ErrLinkNotFound is returned when no link exists for a code or id.
	ErrLinkNotFound = errors.New("URL not found")

	// ErrLinkExpired is returned when a link exists but its expires_at
	// is in the past. Distinct from ErrLinkNotFound: the resource
	// existed, and callers render a dedicated "no longer active" page.
	ErrLinkExpired = errors.New("URL has expired")

	// ErrLinkInactive is returned when a link has been deactivated.
	ErrLinkInactive = errors.New("URL is no longer active")
)

// ClickRecordError reports a failed click ingestion. It is only ever
// logged; click recording never fails the triggering redirect.
type ClickRecordError struct {
	LinkID uint
	Reason string
}

func (e ClickRecordError) Error() string {
	return fmt.Sprintf("failed to record click for link %d: %s", e.LinkID, e.Reason)
}
