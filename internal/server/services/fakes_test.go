package services

import (
	"context"
	"database/sql"
	"io"
	"sync"

	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/dbx"
	"github.com/dmitrijs2005/ingestgate/internal/server/models"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/methods"
)

type fakeManager struct {
	mu          sync.Mutex
	creds       map[string]*models.Credential
	assoc       map[string][]string
	mappings    map[string]*models.MethodMapping
	getErr      error
	createErr   error
	nextID      int
	lastFindFor [2]string
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		creds:    map[string]*models.Credential{},
		assoc:    map[string][]string{},
		mappings: map[string]*models.MethodMapping{},
	}
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Credentials(dbx.DBTX) credentials.Repository  { return fakeCreds{m} }
func (m *fakeManager) Methods(dbx.DBTX) methods.Repository          { return fakeMethods{m} }

type fakeCreds struct{ m *fakeManager }

func (f fakeCreds) Create(_ context.Context, c *models.Credential) (*models.Credential, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.createErr != nil {
		return nil, f.m.createErr
	}
	f.m.nextID++
	c.ID = string(rune('0' + f.m.nextID))
	f.m.creds[c.Username] = c
	return c, nil
}

func (f fakeCreds) GetByUsername(_ context.Context, username string) (*models.Credential, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.getErr != nil {
		return nil, f.m.getErr
	}
	c, ok := f.m.creds[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeCreds) UpdateEmail(_ context.Context, id, email string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, c := range f.m.creds {
		if c.ID == id {
			c.Email = email
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f fakeCreds) AssociateMethod(_ context.Context, credentialID, method string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.mappings[method]; !ok {
		return common.ErrorNotFound
	}
	for _, s := range f.m.assoc[credentialID] {
		if s == method {
			return nil
		}
	}
	f.m.assoc[credentialID] = append(f.m.assoc[credentialID], method)
	return nil
}

func (f fakeCreds) ListMethods(_ context.Context, credentialID string) ([]string, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return append([]string(nil), f.m.assoc[credentialID]...), nil
}

type fakeMethods struct{ m *fakeManager }

func (f fakeMethods) Upsert(_ context.Context, mm *models.MethodMapping) (*models.MethodMapping, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	f.m.mappings[mm.Method] = mm
	return mm, nil
}

func (f fakeMethods) GetByMethod(_ context.Context, method string) (*models.MethodMapping, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	mm, ok := f.m.mappings[method]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return mm, nil
}

func (f fakeMethods) FindForCredential(_ context.Context, username, method string) (*models.MethodMapping, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	f.m.lastFindFor = [2]string{username, method}
	mm, ok := f.m.mappings[method]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c, ok := f.m.creds[username]
	if !ok {
		return nil, common.ErrorForbidden
	}
	for _, s := range f.m.assoc[c.ID] {
		if s == method {
			return mm, nil
		}
	}
	return nil, common.ErrorForbidden
}

func (f fakeMethods) List(context.Context) ([]*models.MethodMapping, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*models.MethodMapping
	for _, mm := range f.m.mappings {
		out = append(out, mm)
	}
	return out, nil
}

type fakeCredentialStore struct {
	ok  bool
	err error
}

func (f fakeCredentialStore) Authenticate(context.Context, string, string) (bool, error) {
	return f.ok, f.err
}

type write struct {
	dir, filename string
	body          []byte
	size          int64
}

type fakeWriter struct {
	mu     sync.Mutex
	writes []write
	err    error
}

func (w *fakeWriter) Write(_ context.Context, dir, filename string, body io.Reader, size int64) error {
	if w.err != nil {
		return w.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, write{dir, filename, b, size})
	return nil
}
