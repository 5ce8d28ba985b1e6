package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"liveResume/internal/browser"
	"liveResume/internal/config"
	"liveResume/internal/database"
	"liveResume/internal/metrics"
	"liveResume/internal/render"
	"liveResume/internal/storage"
	"liveResume/internal/tasks"
	"liveResume/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if !cfg.Queue.Enabled {
		log.Fatalf("queue is disabled, set QUEUE_ENABLED=true to run the export worker")
	}

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	b, err := browser.Launch(browser.Config{
		Bin:         cfg.Browser.Bin,
		PageTimeout: cfg.Browser.PageTimeout,
		MaxPages:    cfg.Browser.MaxPages,
	}, logger)
	if err != nil {
		log.Fatalf("launch browser: %v", err)
	}
	defer b.Close()

	exportHandler := worker.NewExportTaskHandler(
		db,
		storageClient,
		worker.NewRedisNotifier(redisClient),
		render.MustNew(),
		browser.NewComposer(b),
		b.Targets(),
		cfg.Export.ThumbnailWidth,
		logger,
	)

	if cfg.Queue.MetricsPort > 0 {
		go serveMetrics(cfg.Queue.MetricsPort, logger)
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: cfg.Queue.Concurrency,
		Logger:      newAsynqLogger(logger),
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeExportGenerate, exportHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Queue.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}

func serveMetrics(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("worker metrics listening", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("worker metrics server stopped", slog.Any("error", err))
	}
}
