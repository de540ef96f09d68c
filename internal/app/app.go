package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	adminauth "github.com/vicky05092005/statatics-quiz/internal/admin"
	"github.com/vicky05092005/statatics-quiz/internal/bank"
	"github.com/vicky05092005/statatics-quiz/internal/config"
	"github.com/vicky05092005/statatics-quiz/internal/localstore"
	"github.com/vicky05092005/statatics-quiz/internal/logging"
	"github.com/vicky05092005/statatics-quiz/internal/quiz"
	"github.com/vicky05092005/statatics-quiz/internal/remotestore"
	"github.com/vicky05092005/statatics-quiz/internal/results"
	"github.com/vicky05092005/statatics-quiz/internal/server"
	"github.com/vicky05092005/statatics-quiz/internal/settings"
	"github.com/vicky05092005/statatics-quiz/pkg/http/ws"
)

// Application aggregates shared infrastructure and the HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	remote remotestore.Store
	local  *localstore.Store
	ledger *results.Ledger
	hub    *ws.Hub
	http   *http.Server

	pool        *pgxpool.Pool
	redisClient *redis.Client

	feedCancel context.CancelFunc
}

// New bootstraps config, logger, stores, managers and the HTTP server.
// A remote backend that fails its startup ping downgrades the process to
// local-only mode for its remainder.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	a := &Application{cfg: cfg, logger: logger}

	local, err := localstore.Open(cfg.Local.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	a.local = local

	a.remote = a.connectRemote(ctx)

	settingsMgr := settings.NewManager(a.remote, settings.Settings{
		QuestionCount:   cfg.Quiz.DefaultQuestionCount,
		DurationMinutes: cfg.Quiz.DefaultDurationMinutes,
	}, logger)
	bankMgr := bank.NewManager(a.remote, local, logger)
	a.ledger = results.NewLedger(a.remote, local, logger)

	// Startup reconciliation: local data first, then remote wins when
	// reachable.
	hadLocal := bankMgr.LoadLocal()
	a.ledger.LoadLocal()
	if a.remote != nil {
		settingsMgr.Load(ctx)
		if !bankMgr.LoadRemote(ctx) && !hadLocal {
			logger.Warn().Msg("no questions available from remote or local store")
		}
	}
	a.ledger.SortByRoll()

	a.hub = ws.NewHub(logger)
	registry := quiz.NewRegistry()
	auth := adminauth.NewAuth(cfg.Admin, logger)

	deps := server.Deps{
		Auth:     auth,
		Quiz:     quiz.NewHandlers(bankMgr, settingsMgr, a.ledger, registry, nil, logger),
		Settings: settings.NewHandlers(settingsMgr),
		Bank:     bank.NewHandlers(bankMgr),
		Results:  results.NewHandlers(a.ledger, a.hub, logger),
	}
	a.http = server.NewHTTPServer(cfg, logger, deps)
	return a, nil
}

// connectRemote builds the configured remote store driver and verifies it.
// Any failure logs a warning and returns nil (local-only mode).
func (a *Application) connectRemote(ctx context.Context) remotestore.Store {
	var store remotestore.Store
	switch a.cfg.Remote.Backend {
	case config.BackendRedis:
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			DB:       a.cfg.Redis.DB,
			PoolSize: a.cfg.Redis.PoolSize,
		})
		store = remotestore.NewRedisStore(a.redisClient, a.logger)
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, a.cfg.Postgres.DSN())
		if err != nil {
			a.logger.Warn().Err(err).Msg("postgres setup failed, running local-only")
			return nil
		}
		a.pool = pool
		store = remotestore.NewPostgresStore(pool, a.logger)
	default:
		a.logger.Info().Msg("no remote backend configured, running local-only")
		return nil
	}

	if err := store.Ping(ctx); err != nil {
		a.logger.Warn().Err(err).Str("backend", a.cfg.Remote.Backend).
			Msg("remote store unreachable, running local-only")
		return nil
	}
	a.logger.Info().Str("backend", a.cfg.Remote.Backend).Msg("remote store connected")
	return store
}

// Run starts the live results feed and HTTP server, then waits for
// termination signals.
func (a *Application) Run(ctx context.Context) error {
	a.startResultsFeed(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.ledger.Unsubscribe()
	if a.feedCancel != nil {
		a.feedCancel()
	}
	if err := a.local.Close(); err != nil {
		a.logger.Error().Err(err).Msg("local store shutdown error")
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

// startResultsFeed opens the single live subscription that backs the admin
// results view. Each snapshot is re-broadcast to connected admin clients.
func (a *Application) startResultsFeed(ctx context.Context) {
	if a.remote == nil {
		return
	}
	feedCtx, cancel := context.WithCancel(ctx)
	a.feedCancel = cancel
	ok := a.ledger.Subscribe(feedCtx, func(roster []quiz.Result) {
		msg, err := results.SnapshotMessage(roster)
		if err != nil {
			a.logger.Warn().Err(err).Msg("encode results snapshot failed")
			return
		}
		a.hub.BroadcastAll(msg)
	})
	if !ok {
		a.logger.Warn().Msg("results feed not established; admin view falls back to local data")
	}
}
