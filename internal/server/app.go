// Package server initializes and runs the main application server.
// It wires the connection manager, repositories and services, exposes
// storage health over gRPC and pool statistics over HTTP, and handles
// graceful shutdown.
package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cdn/internal/logging"
	"github.com/dmitrijs2005/cdn/internal/server/config"
	"github.com/dmitrijs2005/cdn/internal/server/database"
	"github.com/dmitrijs2005/cdn/internal/server/metrics"
	"github.com/dmitrijs2005/cdn/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cdn/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"

	gs "github.com/dmitrijs2005/cdn/internal/server/grpc"
)

const warmUpRetryInterval = 5 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *database.Manager
	repos       repomanager.RepositoryManager
	userService *services.UserService
	registry    *prometheus.Registry
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db := database.NewManager(database.DefaultOptions(c.DatabaseDSN, c.MigrationsDir))
	rm := repomanager.NewPostgresRepositoryManager(db)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repos:       rm,
		userService: services.NewUserService(rm, c),
		registry:    metrics.NewRegistry(),
	}, nil
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

// warmUp bootstraps the pool ahead of the first request. A failed attempt
// leaves nothing published, so it is simply retried until ctx ends.
func (app *App) warmUp(ctx context.Context) {
	for {
		err := app.repos.RunMigrations(ctx)
		if err == nil {
			break
		}
		app.logger.Warn(ctx, "database bootstrap failed, retrying", "error", err.Error(), "retry_in", warmUpRetryInterval)

		select {
		case <-ctx.Done():
			return
		case <-time.After(warmUpRetryInterval):
		}
	}

	if st, ok := app.db.Stats(); ok {
		app.logger.Info(ctx, "database ready", "max_conns", st.MaxOpenConnections, "open", st.OpenConnections)
	}

	pool, err := app.db.Acquire(ctx)
	if err != nil {
		return
	}
	if err := metrics.RegisterPool(app.registry, pool); err != nil {
		app.logger.Error(ctx, "pool metrics registration failed", "error", err.Error())
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, app.userService)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := metrics.NewServer(app.config.MetricsAddr, app.registry, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.warmUp(ctx)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
}
