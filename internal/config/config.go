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

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"

	BackendLocal = "local"
	BackendMinio = "minio"
)

var (
	ErrUnknownDriver  = errors.New("unknown database driver")
	ErrUnknownBackend = errors.New("unknown upload backend")
	ErrMinioSettings  = errors.New("minio endpoint and bucket must be set")
)

type Config struct {
	Port     string
	DB       DB
	Upload   Upload
	Minio    Minio
	Redis    Redis
	RabbitMQ RabbitMQ
	Log      Log

	AllowedOrigins []string
}

type DB struct {
	Driver   string
	File     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	LogLevel string

	MaxOpenConns int
	MaxIdleConns int
}

// DSN is the postgres connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Upload struct {
	Root     string
	Backend  string
	MaxBytes int64
}

type Minio struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type RabbitMQ struct {
	URL   string
	Queue string
}

type Log struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")

	v.SetDefault("DB_DRIVER", DriverSqlite)
	v.SetDefault("DB_FILE", "dealership.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "dealership")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("UPLOAD_ROOT", "uploads")
	v.SetDefault("UPLOAD_BACKEND", BackendLocal)
	v.SetDefault("UPLOAD_MAX_BYTES", 20<<20)

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 5*time.Minute)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("CLEANUP_QUEUE", "asset.cleanup")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 20)
	v.SetDefault("LOG_MAX_BACKUPS", 14)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// Load reads the given dotenv files (all optional) and then the environment.
// Variables already present in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("can't load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port: v.GetString("PORT"),
		DB: DB{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			File:         v.GetString("DB_FILE"),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			LogLevel:     v.GetString("DB_LOG_LEVEL"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Upload: Upload{
			Root:     v.GetString("UPLOAD_ROOT"),
			Backend:  strings.ToLower(v.GetString("UPLOAD_BACKEND")),
			MaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Minio: Minio{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("CACHE_TTL"),
		},
		RabbitMQ: RabbitMQ{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("CLEANUP_QUEUE"),
		},
		Log: Log{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSqlite, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DB.Driver)
	}
	switch c.Upload.Backend {
	case BackendLocal:
	case BackendMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return ErrMinioSettings
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Upload.Backend)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
