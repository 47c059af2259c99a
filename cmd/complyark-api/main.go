package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/rahulvs07/complyark-data-shield/api/swagger"
	"github.com/rahulvs07/complyark-data-shield/internal/handler"
	"github.com/rahulvs07/complyark-data-shield/internal/middleware"
	"github.com/rahulvs07/complyark-data-shield/internal/repository"
	"github.com/rahulvs07/complyark-data-shield/internal/service"
	"github.com/rahulvs07/complyark-data-shield/pkg/cache"
	"github.com/rahulvs07/complyark-data-shield/pkg/config"
	"github.com/rahulvs07/complyark-data-shield/pkg/database"
	"github.com/rahulvs07/complyark-data-shield/pkg/jobs"
	"github.com/rahulvs07/complyark-data-shield/pkg/logger"
	corsmiddleware "github.com/rahulvs07/complyark-data-shield/pkg/middleware/cors"
	reqidmiddleware "github.com/rahulvs07/complyark-data-shield/pkg/middleware/requestid"
	"github.com/rahulvs07/complyark-data-shield/pkg/storage"
	"github.com/rahulvs07/complyark-data-shield/pkg/tenant"
)

// @title ComplyArk Data Shield API
// @version 1.0.0
// @description Data principal request and grievance case management
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	checks := map[string]handler.ReadinessCheck{}

	store, closeStore, err := openStore(ctx, cfg, logr, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		redisRepo := repository.NewCacheRepository(client, "complyark", logr)
		defer redisRepo.Close() //nolint:errcheck
		checks["redis"] = redisRepo.Ping
		cacheRepo = redisRepo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.DashboardTTL, logr, cfg.Cache.Enabled)

	validate := service.NewValidator()
	dashboard := service.NewDashboardService(service.DashboardServiceParams{
		Store:  store,
		Cache:  cacheSvc,
		Logger: logr,
		Config: service.DashboardServiceConfig{CacheTTL: cfg.Cache.DashboardTTL},
	})
	lifecycle := service.NewLifecycleService(store, validate, metrics, dashboard, logr, service.LifecycleConfig{
		RequireClosureComment: cfg.Cases.RequireClosureComment,
		RecomputeDueDate:      cfg.Cases.RecomputeDueDate,
		LockClosed:            cfg.Cases.LockClosed,
	})
	intake := service.NewIntakeService(store, validate, metrics, dashboard, logr, service.IntakeConfig{DefaultSLADays: cfg.Cases.DefaultSLADays})
	auth := service.NewAuthService(store, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	users := service.NewUserService(store, validate, logr)
	organisations := service.NewOrganisationService(store, validate, logr, cfg.Intake.BaseURL)

	if cfg.Bootstrap.AdminEmail != "" {
		if err := users.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	if cfg.Store.SeedDemo {
		demo, err := service.SeedDemoData(ctx, store, cfg.Bootstrap.AdminPassword, logr)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		if link, err := tenant.Link(cfg.Intake.BaseURL, demo.ID); err == nil {
			logr.Info("demo intake link", zap.String("url", link))
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	exportHandler := handler.NewExportHandler(nil)
	if cfg.Exports.Enabled {
		exportJobs, err := startExports(groupCtx, cfg, store, metrics, logr)
		if err != nil {
			return err
		}
		exportHandler = handler.NewExportHandler(exportJobs)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:          handler.NewAuthHandler(auth),
		Cases:         handler.NewCaseHandler(service.NewCaseService(store, logr), lifecycle),
		Intake:        handler.NewIntakeHandler(intake),
		Dashboard:     handler.NewDashboardHandler(dashboard),
		Organisations: handler.NewOrganisationHandler(organisations),
		Users:         handler.NewUserHandler(users),
		Catalog:       handler.NewCatalogHandler(service.NewCatalogService(store)),
		Exports:       exportHandler,
		Metrics:       handler.NewMetricsHandler(metrics, checks),
	}, auth, logr)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logr.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger, checks map[string]handler.ReadinessCheck) (repository.Store, func(), error) {
	if cfg.Store.Driver != config.StorePostgres {
		logr.Info("using in-memory case store")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logr.Info("migrations applied", zap.Int("count", applied))
	}
	checks["postgres"] = db.PingContext
	return repository.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

func startExports(ctx context.Context, cfg *config.Config, store repository.Store, metrics *service.MetricsService, logr *zap.Logger) (*service.ExportJobService, error) {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	generator := service.NewExportService(store, files, signer, service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr)

	jobRepo := repository.NewExportJobRepository()
	worker := service.NewExportWorker(jobRepo, generator, metrics, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:     cfg.Exports.WorkerConcurrency,
		MaxRetries:  cfg.Exports.WorkerRetries,
		OnExhausted: worker.Exhausted,
		Logger:      logr,
	})
	queue.Start(ctx)
	go func() {
		<-ctx.Done()
		queue.Stop()
	}()

	svc := service.NewExportJobService(jobRepo, queue, generator, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	svc.StartCleanup(ctx)
	return svc, nil
}
