package server

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ingestgate/internal/dbx"
	"github.com/dmitrijs2005/ingestgate/internal/server/config"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/methods"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryYAML = `
methods:
  - method: sales
    uri: sales
credentials:
  - username: alice
    secret: s3cret
    methods: [sales]
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	regFile := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(regFile, []byte(registryYAML), 0o600))

	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	c.RegistryBackend = config.RegistryFile
	c.RegistryFile = regFile
	c.StorageBackend = config.StorageLocal
	c.LocalRoot = filepath.Join(dir, "data")
	c.ShutdownTimeout = time.Second
	return c
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	orig := logOutput
	logOutput = buf
	t.Cleanup(func() { logOutput = orig })
	return buf
}

func TestNewApp_FileRegistry(t *testing.T) {
	logs := captureLogs(t)
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app.uploads)
	assert.Nil(t, app.db)
	assert.Contains(t, logs.String(), "Loaded file registry")
}

func TestNewApp_MissingRegistryFile(t *testing.T) {
	captureLogs(t)
	c := testConfig(t)
	c.RegistryFile = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "registry init error")
}

func TestNewApp_UnknownLogBackend(t *testing.T) {
	c := testConfig(t)
	c.LogBackend = "syslog"

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "logger init error")
}

type migrateFailManager struct{}

func (migrateFailManager) RunMigrations(context.Context, *sql.DB) error { return errors.New("boom") }
func (migrateFailManager) Credentials(dbx.DBTX) credentials.Repository  { return nil }
func (migrateFailManager) Methods(dbx.DBTX) methods.Repository          { return nil }

func TestNewApp_PostgresMigrationFailureClosesDB(t *testing.T) {
	captureLogs(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	origOpen, origRM := openDB, newRepositoryManager
	openDB = func(context.Context, string) (*sql.DB, error) { return db, nil }
	newRepositoryManager = func() repomanager.RepositoryManager { return migrateFailManager{} }
	t.Cleanup(func() { openDB, newRepositoryManager = origOpen, origRM })

	c := testConfig(t)
	c.RegistryBackend = config.RegistryPostgres

	_, err = NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "db migration error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_PostgresOpenFailure(t *testing.T) {
	captureLogs(t)
	origOpen := openDB
	openDB = func(context.Context, string) (*sql.DB, error) { return nil, errors.New("refused") }
	t.Cleanup(func() { openDB = origOpen })

	c := testConfig(t)
	c.RegistryBackend = config.RegistryPostgres

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "db init error")
}

func TestNewApp_StorageFailure(t *testing.T) {
	captureLogs(t)
	c := testConfig(t)
	c.StorageBackend = "tape"

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "storage init error")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	logs := captureLogs(t)
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}

	out, _ := io.ReadAll(logs)
	assert.Contains(t, string(out), "Starting HTTP server")
	assert.Contains(t, string(out), "Starting gRPC server")
	assert.Contains(t, string(out), "App stopped")
}
