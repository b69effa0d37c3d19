package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"fixedttl-cache/internal/auth"
	"fixedttl-cache/internal/cache"
	"fixedttl-cache/internal/config"
	"fixedttl-cache/internal/database"
	"fixedttl-cache/internal/errs"
	"fixedttl-cache/internal/realtime"
	"fixedttl-cache/internal/routes"
	"fixedttl-cache/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type expireTask = cache.ExpireTask[string, string, cache.Backend[string, string]]

// App owns the cache, its expiration task and the HTTP API in front of them.
type App struct {
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	task   *expireTask
	router *gin.Engine
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errs.Wrap(err, "validate config")
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := database.Open(cfg.Database.DSN, cfg.Database.LogLevel, log)
	if err != nil {
		return nil, errs.Wrap(err, "open database")
	}
	if _, err := database.SeedAdmin(db, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		_ = database.Close(db)
		return nil, errs.Wrap(err, "seed admin user")
	}

	backend, err := newBackend(cfg.Cache.Backend, db, log)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	hub := realtime.NewHub()
	c, task := cache.New[string, string](
		cfg.Cache.TTLConfig(),
		backend,
		cache.WithLogger[string](log),
		cache.OnEvict(func(key string) {
			hub.Publish(realtime.NewEvent(realtime.EventKeyExpired, key))
		}),
	)

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	router := routes.SetupRoutes(routes.Deps{
		Cache:  c,
		Hub:    hub,
		DB:     db,
		Tokens: tokens,
		Logger: log,
	})

	log.Info("application initialized",
		zap.String("backend", cfg.Cache.Backend),
		zap.Duration("ttl", cfg.Cache.TTL),
		zap.Duration("empty_delay", cfg.Cache.EmptyDelay),
		zap.Duration("delta_delay", cfg.Cache.DeltaDelay),
	)

	return &App{
		cfg:    cfg,
		log:    log,
		db:     db,
		task:   task,
		router: router,
	}, nil
}

func newBackend(name string, db *gorm.DB, log *zap.Logger) (cache.Backend[string, string], error) {
	switch name {
	case config.BackendHash:
		return cache.NewMapStorage[string, string](), nil
	case config.BackendOrdered:
		return cache.NewOrderedStorage[string, string](), nil
	case config.BackendSQLite:
		s, err := storage.NewSQLiteStorage(db, log)
		if err != nil {
			return nil, errs.Wrap(err, "create sqlite storage")
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", name)
	}
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves the API and runs the expiration task until ctx is done or either fails.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.task.Run(gctx)
		if gctx.Err() != nil {
			return nil
		}
		return errs.Wrap(err, "run expire task")
	})
	g.Go(func() error {
		a.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errs.Wrap(err, "serve http")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down http server")
		return errs.Wrap(srv.Shutdown(shutdownCtx), "shutdown http server")
	})
	return g.Wait()
}

// Close releases the database connection.
func (a *App) Close() error {
	return database.Close(a.db)
}
