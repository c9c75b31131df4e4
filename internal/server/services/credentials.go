package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/cryptox"
	"github.com/dmitrijs2005/ingestgate/internal/dbx"
	"github.com/dmitrijs2005/ingestgate/internal/server/models"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/repomanager"
)

// CredentialService manages submitter credentials stored in PostgreSQL.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager) *CredentialService {
	return &CredentialService{db: db, repomanager: m}
}

// newSecret is a seam for tests.
var newSecret = cryptox.NewSecret

// Authenticate reports whether secret belongs to identity. Unknown
// identities still pay for a key derivation so they cannot be told apart by
// timing.
func (s *CredentialService) Authenticate(ctx context.Context, identity, secret string) (bool, error) {
	c, err := s.repomanager.Credentials(s.db).GetByUsername(ctx, identity)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			salt, _ := cryptox.GenerateRandByteArray(cryptox.SaltSize)
			_ = cryptox.DeriveVerifier(secret, salt)
			return false, nil
		}
		return false, common.ErrorInternal
	}
	return cryptox.CheckSecret(secret, c.Salt, c.Verifier), nil
}

// Create stores a new credential associated with methods and returns the
// generated secret. The secret is only ever available here.
func (s *CredentialService) Create(ctx context.Context, db dbx.DBTX, username, email string, methods []string) (string, *models.Credential, error) {
	secret, err := newSecret()
	if err != nil {
		return "", nil, common.ErrorInternal
	}
	salt, err := cryptox.GenerateRandByteArray(cryptox.SaltSize)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	repo := s.repomanager.Credentials(db)
	c, err := repo.Create(ctx, &models.Credential{
		Username: username,
		Email:    email,
		Salt:     salt,
		Verifier: cryptox.DeriveVerifier(secret, salt),
	})
	if err != nil {
		return "", nil, fmt.Errorf("error creating credential: %w", err)
	}

	if err := s.associate(ctx, db, c.ID, methods); err != nil {
		return "", nil, err
	}
	c.Methods = methods
	return secret, c, nil
}

// Update changes the email and adds method associations of an existing
// credential. The secret is never regenerated.
func (s *CredentialService) Update(ctx context.Context, db dbx.DBTX, c *models.Credential, email string, methods []string) error {
	repo := s.repomanager.Credentials(db)
	if email != c.Email {
		if err := repo.UpdateEmail(ctx, c.ID, email); err != nil {
			return fmt.Errorf("error updating credential: %w", err)
		}
		c.Email = email
	}
	return s.associate(ctx, db, c.ID, methods)
}

// Find returns the credential of username or common.ErrorNotFound.
func (s *CredentialService) Find(ctx context.Context, db dbx.DBTX, username string) (*models.Credential, error) {
	return s.repomanager.Credentials(db).GetByUsername(ctx, username)
}

func (s *CredentialService) associate(ctx context.Context, db dbx.DBTX, credentialID string, methods []string) error {
	repo := s.repomanager.Credentials(db)
	for _, m := range methods {
		if err := repo.AssociateMethod(ctx, credentialID, m); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("method %q: %w", m, common.ErrorNotFound)
			}
			return fmt.Errorf("error associating method %q: %w", m, err)
		}
	}
	return nil
}
