package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paperarchive/internal/api"
	"paperarchive/internal/app/inflight"
	"paperarchive/internal/app/query"
	"paperarchive/internal/app/service"
	"paperarchive/internal/app/worker"
	"paperarchive/internal/common"
	"paperarchive/internal/common/security"
	"paperarchive/internal/domain/repository"
	"paperarchive/internal/domain/repository/inmem"
	"paperarchive/internal/platform/config"
	"paperarchive/internal/platform/database"
	"paperarchive/internal/platform/logger"
	"paperarchive/internal/platform/redisdb"
	"paperarchive/internal/platform/supabase"

	"go.uber.org/zap"
)

type repositories struct {
	categories    repository.CategoryRepository
	papers        repository.PaperRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	roles         repository.RoleRepository
}

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig

	zlog, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck
	zlog.Info("configuration loaded",
		zap.String("db_backend", cfg.DBBackend),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.String("auth_provider", cfg.AuthProvider),
	)

	// 2. Initialize JWT
	security.InitJWT(cfg.JWTKey, cfg.JWTExp)

	// 3. Initialize Database
	var repos repositories
	if cfg.UsesPostgres() {
		if err := database.Connect(cfg.DBConnStr); err != nil {
			zlog.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.Close()
		zlog.Info("database connected")

		repos = repositories{
			categories:    repository.NewPgCategoryRepository(database.DB),
			papers:        repository.NewPgPaperRepository(database.DB),
			notifications: repository.NewPgNotificationRepository(database.DB),
			users:         repository.NewPgUserRepository(database.DB),
			roles:         repository.NewPgRoleRepository(database.DB),
		}
	} else {
		db := inmem.Open()
		repos = repositories{
			categories:    inmem.NewCategoryRepository(db),
			papers:        inmem.NewPaperRepository(db),
			notifications: inmem.NewNotificationRepository(db),
			users:         inmem.NewUserRepository(db),
			roles:         inmem.NewRoleRepository(db),
		}
		zlog.Warn("using in-memory tables, data is lost on restart")
	}

	// 4. Initialize Redis (cache, row guard and recount queue)
	var (
		store   query.Store
		guard   inflight.Guard
		recount worker.RecountQueue
	)
	if cfg.UsesRedis() {
		if err := redisdb.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisdb.CloseRedis()
		zlog.Info("redis connected")

		store = query.NewRedisStore(redisdb.RDB)
		guard = inflight.NewRedisGuard(redisdb.RDB, cfg.RowLockTTL, zlog)
		recount = worker.NewRedisRecountQueue(redisdb.RDB, cfg.PaperCountQueueName)
	} else {
		store = query.NewMemoryStore()
		guard = inflight.NewMemoryGuard()
		recount = worker.NewMemoryRecountQueue(1024)
	}

	queries := query.NewClient(store, query.Options{
		Prefix:       "paperarchive",
		StaleTime:    cfg.QueryStaleTime,
		FetchTimeout: cfg.QueryFetchTimeout,
	}, zlog)

	// 5. Initialize Services
	deps := service.Deps{
		Queries:   queries,
		Guard:     guard,
		Validator: common.NewValidator(),
		Log:       zlog,
	}

	var provider service.IdentityProvider
	switch cfg.AuthProvider {
	case config.AuthProviderSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			zlog.Fatal("AUTH_PROVIDER=supabase needs SUPABASE_URL and SUPABASE_ANON_KEY")
		}
		provider = service.NewSupabaseIdentityProvider(
			supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, &http.Client{Timeout: 10 * time.Second}),
		)
	default:
		provider = service.NewLocalIdentityProvider(repos.users)
	}

	authService := service.NewAuthService(provider, repos.users, repos.roles, deps.Validator, zlog)
	if cfg.BootstrapAdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := authService.AddUser(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, true); err != nil {
			zlog.Error("failed to bootstrap admin account", zap.String("email", cfg.BootstrapAdminEmail), zap.Error(err))
		}
		cancel()
	}

	services := api.Services{
		Auth:          authService,
		Catalog:       service.NewCatalogService(repos.categories, repos.papers, repos.notifications, queries),
		Search:        service.NewSearchService(repos.papers, queries, cfg.SearchLimit),
		Dashboard:     service.NewDashboardService(repos.categories, repos.papers, repos.notifications, queries),
		Categories:    service.NewCategoryManager(repos.categories, deps),
		Papers:        service.NewPaperManager(repos.papers, recount, deps),
		Notifications: service.NewNotificationManager(repos.notifications, deps),
	}

	// 6. Initialize Paper Count Worker (as a goroutine)
	countWorker := worker.NewPaperCountWorker(recount, repos.categories, queries, zlog.Named("paper_count"))
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		countWorker.Start(workerCtx)
	}()

	// 7. Initialize Router & HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      api.NewRouter(services, zlog),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop // Wait for interrupt signal

	zlog.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	<-workerDone

	zlog.Info("server and worker stopped gracefully")
}
