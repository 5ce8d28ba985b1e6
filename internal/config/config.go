package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Session    SessionConfig    `mapstructure:"session"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Export     ExportConfig     `mapstructure:"export"`
	Generation GenerationConfig `mapstructure:"generation"`
	Rewrite    RewriteConfig    `mapstructure:"rewrite"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Database   DatabaseConfig   `mapstructure:"database"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MetricsToken guards /metrics when set.
	MetricsToken string `mapstructure:"metrics_token"`
}

// SessionConfig 控制内存会话的空闲回收。
type SessionConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type BrowserConfig struct {
	Bin         string        `mapstructure:"bin"`
	PageTimeout time.Duration `mapstructure:"page_timeout"`
	MaxPages    int           `mapstructure:"max_pages"`
}

type ExportConfig struct {
	ThumbnailWidth int           `mapstructure:"thumbnail_width"`
	LinkTTL        time.Duration `mapstructure:"link_ttl"`
}

// Generation providers.
const (
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
)

// GenerationConfig selects where rewrite text comes from: an external HTTP
// endpoint or Gemini directly.
type GenerationConfig struct {
	Provider    string        `mapstructure:"provider"`
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
}

type RewriteConfig struct {
	// MaxPerHour limits rewrites per session; 0 disables the limit.
	MaxPerHour int `mapstructure:"max_per_hour"`
}

// RedisConfig 包含 Redis 连接配置。未启用时限流与通知转发均关闭。
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// QueueConfig enables asynchronous exports (asynq worker, database, MinIO).
type QueueConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Concurrency int  `mapstructure:"concurrency"`
	MaxRetry    int  `mapstructure:"max_retry"`
	// MetricsPort serves /metrics from the worker; 0 disables it.
	MetricsPort int `mapstructure:"metrics_port"`
}

// 导出任务表的存储驱动。
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig contains connection options for PostgreSQL. With the sqlite
// driver only Name is used, as the database file path.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration from environment variables (with defaults). A
// .env file in the working directory is applied first when present; real
// environment variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Generation.Provider = strings.ToLower(strings.TrimSpace(cfg.Generation.Provider))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("session.idle_timeout", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("browser.page_timeout", 30*time.Second)
	v.SetDefault("browser.max_pages", 2)
	v.SetDefault("export.thumbnail_width", 340)
	v.SetDefault("export.link_ttl", 5*time.Minute)
	v.SetDefault("generation.provider", ProviderHTTP)
	v.SetDefault("generation.timeout", 60*time.Second)
	v.SetDefault("generation.model", "gemini-1.5-flash")
	v.SetDefault("generation.temperature", 0.4)
	v.SetDefault("rewrite.max_per_hour", 20)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.concurrency", 2)
	v.SetDefault("queue.max_retry", 3)
	v.SetDefault("queue.metrics_port", 9091)
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "liveresume")
	v.SetDefault("database.user", "liveresume")
	v.SetDefault("database.password", "liveresume")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "exports")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"api.shutdown_timeout":     "API_SHUTDOWN_TIMEOUT",
		"api.metrics_token":        "METRICS_TOKEN",
		"session.idle_timeout":     "SESSION_IDLE_TIMEOUT",
		"session.sweep_interval":   "SESSION_SWEEP_INTERVAL",
		"browser.bin":              "CHROMIUM_BIN",
		"browser.page_timeout":     "BROWSER_PAGE_TIMEOUT",
		"browser.max_pages":        "BROWSER_MAX_PAGES",
		"export.thumbnail_width":   "EXPORT_THUMBNAIL_WIDTH",
		"export.link_ttl":          "EXPORT_LINK_TTL",
		"generation.provider":      "GENERATION_PROVIDER",
		"generation.endpoint":      "GENERATION_ENDPOINT",
		"generation.timeout":       "GENERATION_TIMEOUT",
		"generation.api_key":       "GEMINI_API_KEY",
		"generation.model":         "GENERATION_MODEL",
		"generation.temperature":   "GENERATION_TEMPERATURE",
		"rewrite.max_per_hour":     "REWRITE_MAX_PER_HOUR",
		"redis.enabled":            "REDIS_ENABLED",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"queue.enabled":            "QUEUE_ENABLED",
		"queue.concurrency":        "QUEUE_CONCURRENCY",
		"queue.max_retry":          "QUEUE_MAX_RETRY",
		"queue.metrics_port":       "QUEUE_METRICS_PORT",
		"database.driver":          "DATABASE_DRIVER",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.public_endpoint":    "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.region":             "MINIO_REGION",
		"minio.bucket_lookup":      "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Session.IdleTimeout <= 0 {
		return errors.New("session idle timeout must be positive")
	}
	if cfg.Session.SweepInterval <= 0 {
		return errors.New("session sweep interval must be positive")
	}
	if cfg.Browser.MaxPages <= 0 {
		return errors.New("browser max pages must be positive")
	}
	if cfg.Rewrite.MaxPerHour < 0 {
		return errors.New("rewrite max per hour must not be negative")
	}

	switch cfg.Generation.Provider {
	case ProviderHTTP:
		// 未配置 endpoint 时改写接口返回 502，服务仍可启动。
	case ProviderGemini:
		if cfg.Generation.APIKey == "" {
			return errors.New("gemini api key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown generation provider %q", cfg.Generation.Provider)
	}

	if cfg.Queue.Enabled {
		switch cfg.Database.Driver {
		case DriverPostgres, DriverSQLite:
		default:
			return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
		}
	}

	if cfg.Redis.Enabled || cfg.Queue.Enabled {
		if cfg.Redis.Host == "" {
			return errors.New("redis host is required")
		}
		if cfg.Redis.Port <= 0 {
			return errors.New("redis port must be positive")
		}
	}

	if !cfg.Queue.Enabled {
		return nil
	}
	if !cfg.Redis.Enabled {
		return errors.New("queue requires redis to be enabled")
	}
	if cfg.Queue.Concurrency <= 0 {
		return errors.New("queue concurrency must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	return nil
}
