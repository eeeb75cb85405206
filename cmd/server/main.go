package main

import (
	"VaultSync/internal/activity"
	"VaultSync/internal/cache"
	"VaultSync/internal/config"
	"VaultSync/internal/handlers"
	"VaultSync/internal/metadata"
	"VaultSync/internal/metrics"
	"VaultSync/internal/middleware"
	"VaultSync/internal/realtime"
	"VaultSync/internal/repo"
	"VaultSync/internal/service"
	"VaultSync/internal/storage"
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	middleware.TokenTTL = cfg.TokenTTL
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	hub := realtime.NewHub(sugar)
	defer hub.Close()
	m := metrics.New()

	var publisher activity.Publisher = activity.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = activity.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		sugar.Infow("activity stream enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			sugar.Warnw("activity publisher close failed", "error", err)
		}
	}()

	// objects остаётся nil-интерфейсом, если хранилище не настроено
	var objects storage.ObjectStore
	s3Store, err := storage.NewS3Store(ctx, storage.Settings{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		sugar.Warnw("object storage not configured, uploads disabled")
	case err != nil:
		sugar.Fatalw("failed to initialize object storage", "error", err)
	default:
		objects = s3Store
	}

	userRepo := repo.NewUserRepository(gormDB)
	members := repo.NewMembershipRepository(gormDB)
	sources := repo.NewSourceRepository(gormDB)
	annotations := repo.NewAnnotationRepository(gormDB)

	c := newCache(cfg, sugar)
	if closer, ok := c.(io.Closer); ok {
		defer closer.Close()
	}
	collab := service.Collaborators{
		Audit:    repo.NewAuditRepository(gormDB),
		Cache:    c,
		Bus:      hub,
		Activity: publisher,
		Recorder: m,
		Logger:   sugar,
	}
	access := service.NewAccessService(members, sources)
	svc := handlers.Services{
		Users:       service.NewUserService(userRepo),
		Access:      access,
		Vaults:      service.NewVaultService(repo.NewVaultRepository(gormDB), members, userRepo, access, collab),
		Sources:     service.NewSourceService(sources, annotations, access, metadata.NewHTTPFetcher(cfg.MetadataTimeout), collab),
		Annotations: service.NewAnnotationService(annotations, userRepo, access, collab),
		Uploads:     service.NewUploadService(objects, cfg.UploadMaxBytes()),
	}

	h := handlers.NewHandler(svc, hub, m, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
		"Redis", cfg.RedisAddr,
		"S3Bucket", cfg.S3Bucket,
	)

	srv := &http.Server{Addr: addr, Handler: h.Router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}

// newCache выбирает кэш: Redis, если задан адрес, иначе в памяти процесса.
func newCache(cfg *config.Config, logger *zap.SugaredLogger) cache.Cache {
	switch {
	case cfg.CacheDisabled:
		logger.Infow("cache disabled")
		return cache.Nop{}
	case cfg.RedisAddr != "":
		return cache.NewRedis(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
	default:
		return cache.NewMemory()
	}
}
