// Package apperr defines the error kinds the document core reports to its
// callers. Handlers translate these to HTTP status codes; anything that is
// not one of these sentinels is an internal failure and must stay opaque to
// the client.
package apperr

import "errors"

var (
	// ErrNotFound covers both "does not exist" and "exists but the requester
	// has no visibility into it". The two are deliberately indistinguishable
	// so an unauthorized caller cannot probe for document existence.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the resource is visible to the requester but the
	// attempted action exceeds their role.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means an add-collaborator call targets a user who already
	// has access.
	ErrConflict = errors.New("already exists")

	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidInput = errors.New("invalid input")
)
