// Package repo selects and opens the configured storage backend.
package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"event-portal/internal/core/config"
	"event-portal/internal/core/database"
	"event-portal/internal/core/redisdb"
	"event-portal/internal/domain"
	"event-portal/internal/repo/filerepo"
	"event-portal/internal/repo/gormrepo"
	"event-portal/internal/repo/redisrepo"
)

const (
	BackendFile  = "file"
	BackendGorm  = "gorm"
	BackendRedis = "redis"
)

func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*domain.Store, error) {
	timeout := cfg.Storage.OpTimeout()
	switch cfg.Storage.Backend {
	case BackendFile, "":
		log.Info("storage: flat files", zap.String("dir", cfg.Storage.DataDir))
		return filerepo.Open(cfg.Storage.DataDir)

	case BackendGorm:
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
			Log:                log,
		})
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if cfg.DB.AutoMigrate {
			if err := gormrepo.Migrate(db); err != nil {
				return nil, fmt.Errorf("automigrate: %w", err)
			}
			log.Info("automigrate done")
		}
		log.Info("storage: database", zap.String("driver", cfg.DB.Driver))
		return gormrepo.New(db, timeout), nil

	case BackendRedis:
		rdb, err := redisdb.New(ctx, redisdb.Opts{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  time.Duration(cfg.Redis.DialTimeoutMs) * time.Millisecond,
			ReadTimeout:  time.Duration(cfg.Redis.ReadTimeoutMs) * time.Millisecond,
			WriteTimeout: time.Duration(cfg.Redis.WriteTimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		log.Info("storage: redis", zap.String("addr", cfg.Redis.Addr), zap.String("prefix", cfg.Redis.Prefix))
		return redisrepo.New(rdb, cfg.Redis.Prefix, timeout), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
