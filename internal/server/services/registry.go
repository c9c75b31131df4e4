package services

import (
	"context"

	"github.com/dmitrijs2005/ingestgate/internal/dbx"
	"github.com/dmitrijs2005/ingestgate/internal/server/models"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/repomanager"
)

// RegistryService serves method mappings from PostgreSQL. It satisfies
// ingest.Registry.
type RegistryService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewRegistryService(db dbx.DBTX, m repomanager.RepositoryManager) *RegistryService {
	return &RegistryService{db: db, repomanager: m}
}

// FindMapping returns the mapping of method for identity, common.ErrorForbidden
// when identity is not associated with it and common.ErrorNotFound when the
// method is unknown.
func (s *RegistryService) FindMapping(ctx context.Context, identity, method string) (*models.MethodMapping, error) {
	return s.repomanager.Methods(s.db).FindForCredential(ctx, identity, method)
}

// Upsert stores m.
func (s *RegistryService) Upsert(ctx context.Context, db dbx.DBTX, m *models.MethodMapping) (*models.MethodMapping, error) {
	return s.repomanager.Methods(db).Upsert(ctx, m)
}
