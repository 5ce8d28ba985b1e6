package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"liveResume/internal/api"
	"liveResume/internal/browser"
	"liveResume/internal/config"
	"liveResume/internal/database"
	"liveResume/internal/llm"
	"liveResume/internal/render"
	"liveResume/internal/rewrite"
	"liveResume/internal/session"
	"liveResume/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := render.MustNew()

	sessionDeps := session.Deps{Renderer: renderer, Logger: logger}
	b, err := browser.Launch(browser.Config{
		Bin:         cfg.Browser.Bin,
		PageTimeout: cfg.Browser.PageTimeout,
		MaxPages:    cfg.Browser.MaxPages,
	}, logger)
	if err != nil {
		// 没有浏览器时导出返回 NoRenderTarget，编辑与改写不受影响。
		log.Printf("browser unavailable, exports disabled: %v", err)
	} else {
		defer b.Close()
		sessionDeps.Targets = b.Targets()
		sessionDeps.Composer = browser.NewComposer(b)
		log.Printf("browser ready, max_pages=%d", cfg.Browser.MaxPages)
	}

	var model *llm.Generator
	if cfg.Generation.APIKey != "" {
		model, err = llm.NewGenerator(ctx, llm.Config{
			APIKey:      cfg.Generation.APIKey,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
		})
		if err != nil {
			log.Fatalf("init llm: %v", err)
		}
		defer model.Close()
	}

	switch cfg.Generation.Provider {
	case config.ProviderGemini:
		sessionDeps.Generator = model
	default:
		sessionDeps.Generator = rewrite.NewHTTPGenerator(cfg.Generation.Endpoint, cfg.Generation.Timeout)
	}
	log.Printf("rewrite provider=%s", cfg.Generation.Provider)

	registry := session.NewRegistry(sessionDeps)

	deps := api.Dependencies{
		Registry:          registry,
		Renderer:          renderer,
		Logger:            logger,
		RewriteMaxPerHour: cfg.Rewrite.MaxPerHour,
		ExportLinkTTL:     cfg.Export.LinkTTL,
		ExportRetry:       cfg.Queue.MaxRetry,
	}
	if model != nil {
		deps.Model = model
	}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("close redis client failed", slog.Any("error", err))
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("ping redis: %v", err)
		}
		deps.Redis = redisClient
		log.Printf("redis ready at %s", cfg.Redis.Addr())
	}

	var (
		db            *gorm.DB
		storageClient *storage.Client
	)
	if cfg.Queue.Enabled {
		db, err = database.InitDatabase(cfg.Database)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
		log.Printf("database ready, db=%s", cfg.Database.Name)

		storageClient, err = storage.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("init storage client: %v", err)
		}
		log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
		defer asynqClient.Close()

		deps.DB = db
		deps.Queue = asynqClient
		deps.Storage = storageClient
	}

	cleanup := sessionCleanup(db, storageClient, logger)
	deps.OnSessionEnd = cleanup
	go registry.RunJanitor(ctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout, func(id string) {
		cleanup(context.Background(), id)
	})

	router := api.NewRouter(logger, cfg.API.MetricsToken)
	api.RegisterRoutes(router, deps)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.API.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown api server failed", slog.Any("error", err))
		}
	}()

	log.Printf("api listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("failed to start api server: %v", err)
	}
	logger.Info("api server stopped")
}

// sessionCleanup 删除会话在对象存储与数据库中的导出记录；队列未启用时为空操作。
func sessionCleanup(db *gorm.DB, storageClient *storage.Client, logger *slog.Logger) func(ctx context.Context, id string) {
	return func(ctx context.Context, id string) {
		if db == nil || storageClient == nil {
			return
		}
		log := logger.With(slog.String("session_id", id))
		if err := storageClient.DeletePrefix(ctx, storage.SessionPrefix(id)); err != nil {
			log.Warn("delete session exports failed", slog.Any("error", err))
		}
		if n, err := database.DeleteSessionExportJobs(ctx, db, id); err != nil {
			log.Warn("delete session export jobs failed", slog.Any("error", err))
		} else if n > 0 {
			log.Info("session export jobs deleted", slog.Int64("count", n))
		}
	}
}
