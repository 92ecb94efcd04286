package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/config"
	"github.com/tofscope/tofscope/internal/pkg/database"
)

// Databases holds the optional store connections. A field is nil when its
// store is disabled in configuration.
type Databases struct {
	Postgres   *database.PostgresDB
	SQLX       *sqlx.DB
	ClickHouse *database.ClickHouseDB
	Redis      *database.RedisDB
	Minio      *minio.Client
}

// initDatabases connects every enabled store
func initDatabases(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Databases, error) {
	dbs := &Databases{}

	if cfg.Postgres.Enabled {
		pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		dbs.Postgres = pgDB

		sqlxDB, err := database.NewSQLX(ctx, cfg.Postgres)
		if err != nil {
			dbs.Close()
			return nil, fmt.Errorf("failed to initialize PostgreSQL (sqlx): %w", err)
		}
		dbs.SQLX = sqlxDB
	}

	if cfg.ClickHouse.Enabled {
		chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			dbs.Close()
			return nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		dbs.ClickHouse = chDB
	}

	if cfg.Redis.Enabled {
		redisDB, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			dbs.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		dbs.Redis = redisDB
	}

	if cfg.MinIO.Enabled {
		minioClient, err := initMinio(ctx, cfg)
		if err != nil {
			logger.Warn("failed to initialize MinIO, archives will be unavailable", zap.Error(err))
		}
		dbs.Minio = minioClient
	}

	return dbs, nil
}

// Close closes all open connections
func (d *Databases) Close() {
	if d.Postgres != nil {
		d.Postgres.Close()
	}
	if d.SQLX != nil {
		_ = d.SQLX.Close()
	}
	if d.ClickHouse != nil {
		_ = d.ClickHouse.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}

// initMinio creates the MinIO client and makes sure the archive bucket exists
func initMinio(ctx context.Context, cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIO.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIO.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return client, nil
}
