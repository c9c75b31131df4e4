package credentials

import (
	"context"

	"github.com/dmitrijs2005/ingestgate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Credential) (*models.Credential, error)
	GetByUsername(ctx context.Context, username string) (*models.Credential, error)
	UpdateEmail(ctx context.Context, id, email string) error
	AssociateMethod(ctx context.Context, credentialID, method string) error
	ListMethods(ctx context.Context, credentialID string) ([]string, error)
}
