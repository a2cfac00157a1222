// Package server wires configuration, storage, the credential vault, the
// drive provider and the services together, and runs the REST API and the
// gRPC health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/config"
	"github.com/dmitrijs2005/docdrive/internal/server/drive"
	"github.com/dmitrijs2005/docdrive/internal/server/drive/gdrive"
	"github.com/dmitrijs2005/docdrive/internal/server/drive/memdrive"
	"github.com/dmitrijs2005/docdrive/internal/server/drive/s3drive"
	"github.com/dmitrijs2005/docdrive/internal/server/ratelimit"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docdrive/internal/server/rest"
	"github.com/dmitrijs2005/docdrive/internal/server/services"
	"github.com/dmitrijs2005/docdrive/internal/server/vault"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	gs "github.com/dmitrijs2005/docdrive/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	services rest.Services
	admins   *services.AdminService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	db, rm, err := openStorage(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	key, err := vault.KeyFromSecret(c.EncryptionKey)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("vault key error: %w", err)
	}
	v, err := vault.New(key)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("vault init error: %w", err)
	}

	provider, err := newProvider(c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{config: c, logger: logger, db: db}

	var limiter ratelimit.Limiter = ratelimit.Nop{}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis unreachable, login throttling degraded", "address", c.RedisAddr, "error", err.Error())
		}
		limiter = ratelimit.NewRedis(app.redis, c.LoginAttempts, c.LoginWindow)
	}

	ds := services.NewDriveService(db, rm, v, provider, c.DriveTimeout, logger)
	app.admins = services.NewAdminService(db, rm, logger)
	app.services = rest.Services{
		Users:    services.NewUserService(db, rm, c, limiter, logger),
		Admins:   app.admins,
		Drive:    ds,
		Files:    services.NewFileService(db, rm, ds, logger),
		Comments: services.NewCommentService(db, rm, logger),
	}

	logger.Info(ctx, "App initialized", "drive_backend", provider.Name(), "vault_kid", v.KeyID())
	return app, nil
}

// openStorage connects to PostgreSQL, or to a private in-memory store when
// dsn is config.MemoryDSN. The sqlite handle of the memory store only backs
// transactions.
func openStorage(dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	if dsn == config.MemoryDSN {
		db, err := sql.Open("sqlite", "file:docdrive?mode=memory&cache=shared")
		if err != nil {
			return nil, nil, err
		}
		return db, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, rm, nil
}

func newProvider(c *config.Config) (drive.Provider, error) {
	switch c.DriveBackend {
	case config.DriveBackendGoogle:
		return gdrive.New(), nil
	case config.DriveBackendS3:
		return s3drive.New(s3drive.Config{
			Endpoint:  c.S3BaseEndpoint,
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3RootUser,
			SecretKey: c.S3RootPassword,
		}), nil
	case config.DriveBackendMemory:
		return memdrive.New(), nil
	}
	return nil, fmt.Errorf("unknown drive backend %q", c.DriveBackend)
}

// Admins exposes the admin service for maintenance commands.
func (app *App) Admins() *services.AdminService { return app.admins }

// Close releases the database and redis connections.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	errs = append(errs, app.db.Close())
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// bootstrapSuperadmin creates the configured superadmin on startup.
func (app *App) bootstrapSuperadmin(ctx context.Context) {
	if app.config.SuperadminEmail == "" || app.config.SuperadminPassword == "" {
		return
	}
	u, created, err := app.admins.BootstrapSuperadmin(ctx, app.config.SuperadminEmail, app.config.SuperadminPassword)
	if err != nil {
		app.logger.Error(ctx, "superadmin bootstrap failed", "error", err.Error())
		return
	}
	if !created {
		app.logger.Info(ctx, "Superadmin already exists", "user_id", u.ID)
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewServer(app.config, app.logger, app.services)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.db, 0)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)
	app.bootstrapSuperadmin(ctx)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "close error", "error", err.Error())
	}
	app.logger.Info(context.Background(), "App stopped")
}
