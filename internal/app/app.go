package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/huddle/internal/catalog"
	"github.com/MrSnakeDoc/huddle/internal/config"
	"github.com/MrSnakeDoc/huddle/internal/httpserver"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/huddle/internal/logger"
	"github.com/MrSnakeDoc/huddle/internal/redis"
	"github.com/MrSnakeDoc/huddle/internal/scheduler"
	"github.com/MrSnakeDoc/huddle/internal/sources/seed"
	"github.com/MrSnakeDoc/huddle/internal/store"
	"github.com/MrSnakeDoc/huddle/internal/store/file"
	"github.com/MrSnakeDoc/huddle/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/huddle/internal/store/redis"
	"github.com/MrSnakeDoc/huddle/internal/store/sqlite"
	"github.com/MrSnakeDoc/huddle/internal/utils"
	"github.com/MrSnakeDoc/huddle/internal/version"
)

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	server    *httpserver.Server
	backend   store.Backend
	catalog   *catalog.Store
	refresher *scheduler.Refresher
	watcher   *scheduler.FileWatcher
}

// OpenBackend connects the storage backend selected by cfg.StorageBackend.
// Redis fails fast once its retry budget is spent.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Backend, error) {
	switch cfg.StorageBackend {
	case store.BackendRedis:
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client), nil

	case store.BackendSQLite:
		s, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info("sqlite store opened", logger.String("path", cfg.SQLitePath))
		return s, nil

	case store.BackendFile:
		s, err := file.NewStore(cfg.DataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		log.Info("file store opened", logger.String("path", s.Path()))
		return s, nil

	case store.BackendMemory:
		log.Warn("memory backend selected, sports will not survive a restart")
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// NewCatalog builds the sports store over backend. A configured seed file
// replaces the built-in seed list.
func NewCatalog(cfg *config.Config, backend catalog.Persistence, log logger.Logger) (*catalog.Store, error) {
	opts := []catalog.Option{
		catalog.WithKey(cfg.StorageKey),
		catalog.WithLogger(log.With(logger.String("component", "catalog"))),
	}
	if cfg.SeedFile != "" {
		sports, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		log.Info("seed file loaded",
			logger.String("file", cfg.SeedFile),
			logger.Int("count", len(sports)))
		opts = append(opts, catalog.WithSeed(sports))
	}
	return catalog.New(backend, opts...), nil
}

func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	// Initialize storage early - fail fast if unavailable
	backend, err := OpenBackend(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	cat, err := NewCatalog(cfg, backend, loggerClient)
	if err != nil {
		utils.MustClose(backend, loggerClient)
		return nil, err
	}

	// Create manual reload trigger channel, shared by /reload and the file watcher
	reloadTrigger := make(chan struct{}, 1)

	refresher := scheduler.NewRefresher(cat, loggerClient, cfg.RefreshInterval, reloadTrigger)

	var watcher *scheduler.FileWatcher
	if cfg.StorageBackend == store.BackendFile && cfg.WatchDataFile {
		watcher, err = scheduler.NewFileWatcher(cfg.DataFile, scheduler.DefaultDebounce, reloadTrigger, loggerClient)
		if err != nil {
			utils.MustClose(backend, loggerClient)
			return nil, fmt.Errorf("failed to watch data file: %w", err)
		}
	}

	instanceID := uuid.NewString()
	loggerClient = loggerClient.With(logger.String("instance_id", instanceID))

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		InstanceID:     instanceID,
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		Catalog:        cat,
		Backend:        backend,
		BackendName:    cfg.StorageBackend,
		Refresher:      refresher,
		ReloadTrigger:  reloadTrigger,
		MutationBurst:  cfg.MutationBurst,
		MutationRefill: cfg.MutationRefillPerMn,
	}

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		server:    httpserver.New(cfg, loggerClient, d),
		backend:   backend,
		catalog:   cat,
		refresher: refresher,
		watcher:   watcher,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Huddle v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Huddle %s, backend=%s", version.String(), a.cfg.StorageBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Loads (or seeds) the catalog, then refreshes it periodically
	if err := a.refresher.Start(ctx); err != nil {
		if a.watcher != nil {
			a.watcher.Stop()
		}
		utils.MustClose(a.backend, a.logger)
		return fmt.Errorf("failed to start refresher: %w", err)
	}
	a.logger.Info("refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval),
		logger.Int("sports", len(a.catalog.Sports())))

	if a.watcher != nil {
		a.watcher.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	utils.MustClose(a.backend, a.logger)
	if runErr != nil {
		return runErr
	}

	a.logger.Info("✅ Huddle stopped cleanly")
	return nil
}
