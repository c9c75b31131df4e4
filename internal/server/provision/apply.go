package provision

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/dbx"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ingestgate/internal/server/services"
)

// Issued is a secret generated for a newly created credential. It is never
// stored in clear and cannot be recovered later.
type Issued struct {
	Username string
	Secret   string
}

// Report summarizes one Apply.
type Report struct {
	Methods int
	Created []Issued
	Updated []string
}

// Apply upserts every method and credential of f in a single transaction.
// Existing credentials keep their secret; only new ones get one issued.
func Apply(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, f *File) (*Report, error) {
	creds := services.NewCredentialService(db, m)
	registry := services.NewRegistryService(db, m)
	report := &Report{}

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, method := range f.Methods {
			if _, err := registry.Upsert(ctx, tx, method.Mapping()); err != nil {
				return errors.Wrapf(err, "method %q", method.Method)
			}
			report.Methods++
		}

		for _, c := range f.Credentials {
			existing, err := creds.Find(ctx, tx, c.Username)
			switch {
			case err == nil:
				if err := creds.Update(ctx, tx, existing, c.Email, c.Methods); err != nil {
					return errors.Wrapf(err, "credential %q", c.Username)
				}
				report.Updated = append(report.Updated, c.Username)
			case errors.Is(err, common.ErrorNotFound):
				secret, _, err := creds.Create(ctx, tx, c.Username, c.Email, c.Methods)
				if err != nil {
					return errors.Wrapf(err, "credential %q", c.Username)
				}
				report.Created = append(report.Created, Issued{Username: c.Username, Secret: secret})
			default:
				return errors.Wrapf(err, "credential %q", c.Username)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
