// Package server assembles one of the web applications (hello, site, auth
// or forms) from configuration and runs it until a termination signal:
// the fiber HTTP server plus the gRPC health endpoint on a side port.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/formkeeper/internal/filex"
	"github.com/dmitrijs2005/formkeeper/internal/logging"
	"github.com/dmitrijs2005/formkeeper/internal/server/config"
	"github.com/dmitrijs2005/formkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/formkeeper/internal/server/repositories/submissions"
	"github.com/dmitrijs2005/formkeeper/internal/server/services"
	"github.com/dmitrijs2005/formkeeper/internal/server/web"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/formkeeper/internal/server/grpc"
)

// Kind selects which application a binary serves.
type Kind string

const (
	KindHello Kind = "hello"
	KindSite  Kind = "site"
	KindAuth  Kind = "auth"
	KindForms Kind = "forms"
)

type App struct {
	kind    Kind
	config  *config.Config
	logger  logging.Logger
	web     *web.Server
	health  *gs.HealthServer
	closers []io.Closer
}

// Seams for tests.
var (
	openPostgres = repomanager.OpenPostgres
	openSQLite   = submissions.OpenSQLite
	newS3Client  = submissions.NewS3Client
)

func NewApp(ctx context.Context, kind Kind, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel).With("app", string(kind))
	return newApp(ctx, kind, c, logger)
}

func newApp(ctx context.Context, kind Kind, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{
		kind:   kind,
		config: c,
		logger: logger,
		web:    web.NewServer(c.EndpointAddrHTTP, "formkeeper-"+string(kind), logger),
	}
	if c.EndpointAddrGRPC != "" {
		app.health = gs.NewHealthServer(c.EndpointAddrGRPC, string(kind), logger)
	}

	pages, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates error: %w", err)
	}

	router := app.web.App()

	switch kind {
	case KindHello:
		web.MountHello(router)
	case KindSite:
		web.MountSite(router, pages)
	case KindAuth:
		m := repomanager.NewPostgresRepositoryManager()
		db, err := openPostgres(ctx, c.DatabaseDSN, m)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, db)

		us := services.NewUserService(db, m, c)
		web.NewAuthHandlers(us, pages, web.NewFlashes(), logger).Mount(router)
	case KindForms:
		stores, err := app.openFormStores(ctx)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		fs := services.NewFormService(stores)
		web.NewFormHandlers(fs, pages).Mount(router)
		logger.Info(ctx, "form backends ready", "backends", strings.Join(fs.Backends(), ","))
	default:
		return nil, fmt.Errorf("unknown app kind %q", kind)
	}

	return app, nil
}

func (app *App) openFormStores(ctx context.Context) (map[string]submissions.Repository, error) {
	c := app.config

	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir error: %w", err)
	}

	if p := sqlitePath(c.SQLiteDSN); p != "" {
		if _, err := filex.EnsureDir(filepath.Dir(p)); err != nil {
			return nil, fmt.Errorf("data dir error: %w", err)
		}
	}
	db, err := openSQLite(ctx, c.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite init error: %w", err)
	}
	app.closers = append(app.closers, db)

	stores := map[string]submissions.Repository{
		services.BackendText: submissions.NewTextRepository(filepath.Join(dir, submissions.TextFileName)),
		services.BackendJSON: submissions.NewJSONRepository(filepath.Join(dir, submissions.JSONFileName)),
		services.BackendCSV:  submissions.NewCSVRepository(filepath.Join(dir, submissions.CSVFileName)),
		services.BackendDB:   submissions.NewSQLiteRepository(db),
	}

	if c.S3Bucket != "" {
		client, err := newS3Client(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		stores[services.BackendS3] = submissions.NewS3Repository(client, c.S3Bucket)
	}

	return stores, nil
}

// sqlitePath extracts the file path of a SQLite DSN ("data/x.db" or
// "file:data/x.db?..."); in-memory databases yield "".
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	p, _, _ = strings.Cut(p, "?")
	if p == "" || p == ":memory:" {
		return ""
	}
	return p
}

// Seams for tests.
var (
	signalNotify = signal.Notify
	signalStop   = signal.Stop
)

// initSignalHandler cancels the app on SIGINT, SIGTERM or SIGQUIT. The
// returned stop function unregisters the channel and ends the watcher.
func (app *App) initSignalHandler(cancelFunc context.CancelFunc) (stop func()) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signalNotify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signalStop(sigs)
		close(done)
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or one
// of the servers fails, then releases the stores.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stopSignals := app.initSignalHandler(cancelFunc)
	defer stopSignals()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.web.Run(gctx)
	})

	if app.health != nil {
		g.Go(func() error {
			return app.health.Run(gctx)
		})
		app.health.SetServing(true)
	}

	err := g.Wait()
	if cerr := app.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}

	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) Close() error {
	var errs []error
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
