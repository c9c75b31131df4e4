package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ingestgate/internal/dbx"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/methods"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Credentials(db dbx.DBTX) credentials.Repository
	Methods(db dbx.DBTX) methods.Repository
}
