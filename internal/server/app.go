// Package server wires configuration, the registry, storage and the upload
// pipeline together and runs the HTTP and gRPC servers until a signal
// arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ingestgate/internal/logging"
	"github.com/dmitrijs2005/ingestgate/internal/server/config"
	"github.com/dmitrijs2005/ingestgate/internal/server/ingest"
	"github.com/dmitrijs2005/ingestgate/internal/server/provision"
	"github.com/dmitrijs2005/ingestgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ingestgate/internal/server/services"
	"github.com/dmitrijs2005/ingestgate/internal/server/storage"

	gs "github.com/dmitrijs2005/ingestgate/internal/server/grpc"
	hs "github.com/dmitrijs2005/ingestgate/internal/server/http"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	uploads *services.UploadService
}

// seams for tests
var (
	openDB               = repomanager.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newStorage           = storage.New
)

var logOutput io.Writer = os.Stdout

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, logOutput, c.LogDebug)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	registry, creds, err := app.initRegistry(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	writer, err := newStorage(ctx, c)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	pipeline := ingest.NewPipeline(registry,
		ingest.WithPolicy(ingest.NewFormatPolicy(c.AllowedExtensions...)),
		ingest.WithSampleRows(c.SampleRows),
	)
	app.uploads = services.NewUploadService(creds, pipeline, writer, logger.With("module", "upload"))

	return app, nil
}

func (app *App) initRegistry(ctx context.Context) (ingest.Registry, services.CredentialStore, error) {
	switch app.config.RegistryBackend {
	case config.RegistryFile:
		f, err := provision.Load(app.config.RegistryFile)
		if err != nil {
			return nil, nil, fmt.Errorf("registry init error: %w", err)
		}
		reg, creds, err := provision.Static(f)
		if err != nil {
			return nil, nil, fmt.Errorf("registry init error: %w", err)
		}
		app.logger.Info(ctx, "Loaded file registry", "methods", len(f.Methods), "credentials", len(f.Credentials))
		return reg, creds, nil
	default:
		db, err := openDB(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db

		rm := newRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("db migration error: %w", err)
		}
		return services.NewRegistryService(db, rm), services.NewCredentialService(db, rm), nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	httpServer := hs.NewHTTPServer(hs.Options{
		Address:         app.config.HTTPAddr,
		MaxUploadMemory: app.config.MaxUploadMemory,
		Limiter:         hs.NewLimiter(app.config.RateLimit, app.config.RateBurst),
		ShutdownTimeout: app.config.ShutdownTimeout,
	}, app.uploads, app.logger)
	grpcServer := gs.NewGRPCServer(app.config.GRPCAddr, app.logger)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := grpcServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	grpcServer.SetServing(true)
	go func() {
		<-ctx.Done()
		grpcServer.SetServing(false)
	}()

	wg.Wait()
	app.Close()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
}

// Close releases the database connection, if any.
func (app *App) Close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "closing database", "error", err)
		}
		app.db = nil
	}
}
