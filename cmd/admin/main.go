package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"liveResume/internal/config"
	"liveResume/internal/database"
	"liveResume/internal/storage"
)

// admin 清理过期的导出任务：删除对象存储中的产物与缩略图，再删除任务记录。
// 会话结束时 api 会自行清理；这里处理进程崩溃或重启后残留的数据。
func main() {
	var (
		olderThan = flag.Duration("older-than", 24*time.Hour, "删除最后更新早于该时长的导出任务")
		batchSize = flag.Int("batch", 200, "每批处理的任务数")
		dryRun    = flag.Bool("dry-run", false, "只打印将被删除的任务")
		dbHost    = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort    = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName    = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser    = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass    = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode   = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	if *olderThan <= 0 {
		log.Fatal("--older-than must be positive")
	}
	if *batchSize <= 0 {
		log.Fatal("--batch must be positive")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-*olderThan)
	var purged, failed int
	for {
		jobs, err := database.ListExportJobsBefore(ctx, db, cutoff, *batchSize)
		if err != nil {
			log.Fatalf("list export jobs: %v", err)
		}
		if len(jobs) == 0 {
			break
		}

		for _, job := range jobs {
			if *dryRun {
				fmt.Printf("%s\t%s\t%s\t%s\t%s\n", job.ID, job.SessionID, job.Format, job.Status, job.UpdatedAt.Format(time.RFC3339))
				continue
			}
			if err := purgeJob(ctx, storageClient, db, job); err != nil {
				log.Printf("purge job %s: %v", job.ID, err)
				failed++
				continue
			}
			purged++
		}

		// dry-run 不删除记录，一批即可；失败的任务会留在结果中，避免死循环。
		if *dryRun || failed > 0 || len(jobs) < *batchSize {
			break
		}
	}

	fmt.Printf("已清理导出任务 %d 个，失败 %d 个（截止 %s）\n", purged, failed, cutoff.Format(time.RFC3339))
	if failed > 0 {
		os.Exit(1)
	}
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// purgeJob 先删对象再删记录；对象删除失败时保留记录，下次继续重试。
func purgeJob(ctx context.Context, objects objectDeleter, db *gorm.DB, job database.ExportJob) error {
	for _, key := range []string{job.ObjectKey, job.ThumbnailKey} {
		if err := objects.DeleteObject(ctx, key); err != nil {
			return err
		}
	}
	if err := database.DeleteExportJob(ctx, db, job.ID); err != nil && !errors.Is(err, database.ErrJobNotFound) {
		return err
	}
	return nil
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
