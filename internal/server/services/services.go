// Package services contains server-side business logic: authenticating
// submitters, resolving method mappings from the registry and running
// uploads through validation and storage.
package services

import "context"

// CredentialStore authenticates submitters.
type CredentialStore interface {
	Authenticate(ctx context.Context, identity, secret string) (bool, error)
}
