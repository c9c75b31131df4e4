package ingest

import (
	"context"
	"path"

	"github.com/dmitrijs2005/ingestgate/internal/server/models"
)

// DestinationResolver maps an identity and method to a storage directory.
type DestinationResolver struct {
	Registry Registry
}

// Resolve returns the directory uploads of identity for method are written
// to. A method the identity is not associated with yields a PermissionDenied
// error; an unknown method yields UnknownDestination.
func (d DestinationResolver) Resolve(ctx context.Context, identity, method string) (string, error) {
	m, e := lookupMapping(ctx, d.Registry, identity, method)
	if e != nil {
		return "", e
	}
	return Destination(m, identity), nil
}

// Destination is the per-submitter directory under the mapping URI.
func Destination(m *models.MethodMapping, identity string) string {
	return path.Join(m.URI, identity)
}
