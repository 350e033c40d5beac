// Package apperr defines the error taxonomy shared across services.
package apperr

import "errors"

var (
	// ErrNotFound marks lookups for entities that do not exist
	// (unknown patient, unknown session).
	ErrNotFound = errors.New("not found")

	// ErrCollaboratorUnavailable marks a degraded external dependency
	// (LLM or embedding backend). Services fall back to canned output
	// instead of surfacing it to callers.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrMalformedOutput marks structured LLM output that failed to parse.
	ErrMalformedOutput = errors.New("malformed structured output")
)
