// Package server wires the configuration, storage, collaborators and the
// HTTP surface together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/shopauth/internal/clock"
	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/archive"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/httpapi"
	"github.com/dmitrijs2005/shopauth/internal/server/mailer"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
	"github.com/dmitrijs2005/shopauth/internal/server/throttle"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	auth    *services.AuthService
	catalog *services.CatalogService
	closers []io.Closer
}

// NewApp opens the store, applies migrations and builds the services for
// the configured profile. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(c.LogBackend, c.LogLevel, w)
	if err != nil {
		return nil, err
	}

	profile, err := services.NewProfile(c)
	if err != nil {
		return nil, err
	}

	db, err := dbx.Open(profile.Repositories.Dialect(), c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app := &App{config: c, logger: logger, db: db, closers: []io.Closer{db}}

	if err := profile.Repositories.RunMigrations(ctx, db); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithResetTokenTTL(c.ResetTokenTTL),
	}

	switch c.MailBackend {
	case config.MailBackendKafka:
		k := mailer.NewKafkaSender(c.KafkaBrokers, c.KafkaTopic, logger)
		app.closers = append(app.closers, k)
		opts = append(opts, services.WithMailer(k, c.MailFrom))
	default:
		opts = append(opts, services.WithMailer(mailer.NewLogSender(logger), c.MailFrom))
	}

	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, rdb)
		opts = append(opts, services.WithLimiter(throttle.NewRedisLimiter(rdb, c.SignupLimit, c.SignupWindow)))
	}

	if c.ArchiveEnabled {
		a, err := archive.NewS3Archiver(ctx, archive.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
		})
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		opts = append(opts, services.WithArchiver(a))
	}

	app.auth = services.NewAuthService(db, profile, opts...)
	app.catalog = services.NewCatalogService(db, profile, clock.System{})

	if profile.Name == config.ProfileInsecure {
		logger.Warn(ctx, "running the INSECURE profile: plaintext passwords, interpolated SQL, no lockout")
	}

	return app, nil
}

func (app *App) AuthService() *services.AuthService { return app.auth }

func (app *App) CatalogService() *services.CatalogService { return app.catalog }

func (app *App) Logger() logging.Logger { return app.logger }

// Close releases collaborators in reverse order of creation.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a signal arrives, then closes
// the collaborators.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "profile", app.auth.Profile().Name)

	app.initSignalHandler(cancelFunc)

	srv := httpapi.NewServer(app.config.HTTPAddr, app.logger, app.auth, app.catalog,
		app.config.SecretKey, app.config.SessionTTL, clock.System{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	err := g.Wait()
	if cerr := app.Close(); cerr != nil {
		app.logger.Error(ctx, "close error", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
