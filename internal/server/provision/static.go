package provision

import (
	"context"

	"github.com/dmitrijs2005/ingestgate/internal/cryptox"
	"github.com/dmitrijs2005/ingestgate/internal/server/ingest"
)

// StaticCredentials authenticates against secrets declared in a provisioning
// file. Secrets are kept only as verifiers.
type StaticCredentials struct {
	salt      []byte
	verifiers map[string][]byte
}

// Authenticate implements services.CredentialStore.
func (s *StaticCredentials) Authenticate(_ context.Context, identity, secret string) (bool, error) {
	v, ok := s.verifiers[identity]
	if !ok {
		_ = cryptox.DeriveVerifier(secret, s.salt)
		return false, nil
	}
	return cryptox.CheckSecret(secret, s.salt, v), nil
}

// Static builds the in-memory registry and credential store of the file
// registry backend. Credentials without a secret cannot authenticate.
func Static(f *File) (*ingest.StaticRegistry, *StaticCredentials, error) {
	salt, err := cryptox.GenerateRandByteArray(cryptox.SaltSize)
	if err != nil {
		return nil, nil, err
	}

	reg := ingest.NewStaticRegistry()
	byMethod := make(map[string]Method, len(f.Methods))
	for _, m := range f.Methods {
		byMethod[m.Method] = m
		reg.Register(m.Mapping())
	}

	creds := &StaticCredentials{salt: salt, verifiers: make(map[string][]byte, len(f.Credentials))}
	for _, c := range f.Credentials {
		for _, name := range c.Methods {
			reg.Associate(c.Username, byMethod[name].Mapping())
		}
		if c.Secret != "" {
			creds.verifiers[c.Username] = cryptox.DeriveVerifier(c.Secret, salt)
		}
	}
	return reg, creds, nil
}
