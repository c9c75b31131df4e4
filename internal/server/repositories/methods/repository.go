package methods

import (
	"context"

	"github.com/dmitrijs2005/ingestgate/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, m *models.MethodMapping) (*models.MethodMapping, error)
	GetByMethod(ctx context.Context, method string) (*models.MethodMapping, error)
	FindForCredential(ctx context.Context, username, method string) (*models.MethodMapping, error)
	List(ctx context.Context) ([]*models.MethodMapping, error)
}
