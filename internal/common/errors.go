// Package common defines shared constants and sentinel errors used across
// ingestgate components. Callers should use errors.Is to match these values.
package common

import "github.com/cockroachdb/errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrorForbidden means the record exists but the caller is not associated with it.
	ErrorForbidden = errors.New("forbidden")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Provisioning errors.
	ErrorAlreadyExists = errors.New("already exists")
	ErrorValidation    = errors.New("validation error")
)
