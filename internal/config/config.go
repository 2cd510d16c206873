package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"payments_admin/internal/config/connections/mongo"
	"payments_admin/internal/config/connections/postgres"
	"payments_admin/internal/config/connections/s3"

	"github.com/joho/godotenv"
)

const (
	BackendHTTP     = "http"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type Config struct {
	Port        string
	Backend     string
	RecordsURL  string
	HTTPTimeout time.Duration
	PageSize    int
	Headless    bool

	MongoCollection string
	PGTable         string

	S3       *s3.S3
	Mongo    *mongo.Mongo
	Postgres *postgres.Postgres
}

// Init reads the environment (and .env when present) and connects the selected
// records backend. S3 is only connected when AWS_ENDPOINT is set.
func Init(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getenv("ADMIN_HTTP_PORT", ""),
		Backend:         strings.ToLower(getenv("RECORDS_BACKEND", BackendHTTP)),
		RecordsURL:      getenv("RECORDS_API_URL", "http://127.0.0.1:8080/"),
		HTTPTimeout:     time.Duration(getenvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		PageSize:        getenvInt("PAGE_SIZE", 10),
		Headless:        getenv("ADMIN_HEADLESS", "false") == "true",
		MongoCollection: getenv("MONGO_COLLECTION", "payments"),
		PGTable:         getenv("PG_TABLE", "payments"),
	}

	if endpoint := getenv("AWS_ENDPOINT", ""); endpoint != "" {
		s3c, err := s3.NewConnection(s3.ConnectionInfo{
			Endpoint:  endpoint,
			AccessKey: getenv("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretKey: getenv("AWS_SECRET_ACCESS_KEY", "minioadmin"),
			Region:    getenv("AWS_DEFAULT_REGION", "us-east-1"),
			Bucket:    getenv("AWS_BUCKET", "evidence"),
			UseSSL:    getenv("AWS_USE_SSL", "false") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("s3 connect: %w", err)
		}
		if getenv("AWS_CREATE_BUCKET", "false") == "true" {
			if err := s3c.EnsureBucket(ctx); err != nil {
				return nil, fmt.Errorf("s3 bucket %q: %w", s3c.Bucket, err)
			}
		}
		cfg.S3 = s3c
	}

	switch cfg.Backend {
	case BackendHTTP:
	case BackendMongo:
		mg, err := mongo.NewConnection(ctx, mongo.ConnectionInfo{
			URI:        getenv("MONGO_URI", ""),
			Scheme:     getenv("MONGO_SCHEME", "mongodb"),
			User:       getenv("MONGO_USER", ""),
			Password:   getenv("MONGO_PASSWORD", ""),
			Host:       getenv("MONGO_HOST", "127.0.0.1"),
			Port:       getenv("MONGO_PORT", "27017"),
			DB:         getenv("MONGO_DB", "payment_gateway"),
			AuthSource: getenv("MONGO_AUTH_SOURCE", ""),
		})
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		cfg.Mongo = mg
	case BackendPostgres:
		pg, err := postgres.NewConnection(ctx, postgres.ConnectionInfo{
			DSN:      getenv("PG_DSN", ""),
			MaxConns: int32(getenvInt("PG_MAX_CONNS", 4)),
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     getenv("PG_PORT", "5432"),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", ""),
			DB:       getenv("PG_DB", "payment_gateway"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		})
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		cfg.Postgres = pg
	default:
		return nil, fmt.Errorf("unknown RECORDS_BACKEND %q (want http, mongo or postgres)", cfg.Backend)
	}

	return cfg, nil
}

func (c *Config) CheckConnections(ctx context.Context) error {
	var errs []error

	switch c.Backend {
	case BackendMongo:
		if c.Mongo == nil || c.Mongo.Client == nil {
			errs = append(errs, errors.New("mongo not initialized"))
		} else if err := c.Mongo.Client.Ping(ctx, nil); err != nil {
			errs = append(errs, fmt.Errorf("mongo ping failed: %w", err))
		}
	case BackendPostgres:
		if c.Postgres == nil || c.Postgres.Pool == nil {
			errs = append(errs, errors.New("postgres not initialized"))
		} else if err := c.Postgres.Pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres ping failed: %w", err))
		}
	}

	if c.S3 != nil {
		if ok, err := c.S3.Client.BucketExists(ctx, c.S3.Bucket); err != nil {
			errs = append(errs, fmt.Errorf("s3 bucket check failed: %w", err))
		} else if !ok {
			errs = append(errs, fmt.Errorf("s3 bucket %q not found", c.S3.Bucket))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) Close(ctx context.Context) {
	if c.Mongo != nil {
		_ = c.Mongo.Close(ctx)
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
