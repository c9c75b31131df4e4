// Package credentials stores submitter credentials and their method
// associations.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/dbx"
	"github.com/dmitrijs2005/ingestgate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Credential) (*models.Credential, error) {
	query :=
		`INSERT INTO credentials (username, email, salt, verifier)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, c.Username, c.Email, c.Salt, c.Verifier).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Credential, error) {
	query :=
		`SELECT id, username, email, salt, verifier, created_at FROM credentials
		 WHERE username = $1`

	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&c.ID, &c.Username, &c.Email, &c.Salt, &c.Verifier, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

// UpdateEmail changes the contact address. Salt and verifier are never
// touched after creation.
func (r *PostgresRepository) UpdateEmail(ctx context.Context, id, email string) error {
	query := `UPDATE credentials SET email = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// AssociateMethod links the credential to an existing method mapping.
// Associating twice is a no-op; an unknown method yields common.ErrorNotFound.
func (r *PostgresRepository) AssociateMethod(ctx context.Context, credentialID, method string) error {
	query :=
		`INSERT INTO credential_methods (credential_id, method_id, method)
		 SELECT $1, m.id, m.method FROM method_mappings m WHERE m.method = $2
		 ON CONFLICT DO NOTHING
		 RETURNING method_id`

	var methodID string
	err := r.db.QueryRowContext(ctx, query, credentialID, method).Scan(&methodID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("db error: %w", err)
	}

	// Nothing inserted: either already associated or the method is unknown.
	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM method_mappings WHERE method = $1)`, method).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListMethods(ctx context.Context, credentialID string) ([]string, error) {
	query :=
		`SELECT method FROM credential_methods
		 WHERE credential_id = $1
		 ORDER BY method`

	rows, err := r.db.QueryContext(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
