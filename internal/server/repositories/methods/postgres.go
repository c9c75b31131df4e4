// Package methods stores method mappings: the destination path and schema
// registered for each logical data feed.
package methods

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

type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(s scanner) (*models.MethodMapping, error) {
	m := &models.MethodMapping{}
	var schema []byte
	if err := s.Scan(&m.ID, &m.Method, &m.URI, &m.Description, &m.MandatoryHeaders, &schema); err != nil {
		return nil, err
	}
	if schema != nil {
		m.Schema = &models.Schema{}
		if err := m.Schema.Scan(schema); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Upsert inserts the mapping or updates the existing one with the same
// method name. A nil Schema stores NULL.
func (r *PostgresRepository) Upsert(ctx context.Context, m *models.MethodMapping) (*models.MethodMapping, error) {
	query :=
		`INSERT INTO method_mappings (method, uri, description, mandatory_headers, schema)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (method) DO UPDATE
		 SET uri = EXCLUDED.uri, description = EXCLUDED.description,
		     mandatory_headers = EXCLUDED.mandatory_headers, schema = EXCLUDED.schema
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, m.Method, m.URI, m.Description, m.MandatoryHeaders, m.Schema).Scan(&m.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) GetByMethod(ctx context.Context, method string) (*models.MethodMapping, error) {
	query :=
		`SELECT id, method, uri, description, mandatory_headers, schema FROM method_mappings
		 WHERE method = $1`

	m, err := scanMapping(r.db.QueryRowContext(ctx, query, method))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// FindForCredential returns the mapping of method when username is
// associated with it. It returns common.ErrorForbidden when the method exists
// but is not associated, and common.ErrorNotFound when it does not exist.
func (r *PostgresRepository) FindForCredential(ctx context.Context, username, method string) (*models.MethodMapping, error) {
	query :=
		`SELECT m.id, m.method, m.uri, m.description, m.mandatory_headers, m.schema
		 FROM method_mappings m
		 JOIN credential_methods cm ON cm.method_id = m.id
		 JOIN credentials c ON c.id = cm.credential_id
		 WHERE c.username = $1 AND m.method = $2`

	m, err := scanMapping(r.db.QueryRowContext(ctx, query, username, method))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM method_mappings WHERE method = $1)`, method).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if exists {
		return nil, common.ErrorForbidden
	}
	return nil, common.ErrorNotFound
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.MethodMapping, error) {
	query :=
		`SELECT id, method, uri, description, mandatory_headers, schema FROM method_mappings
		 ORDER BY method`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.MethodMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
