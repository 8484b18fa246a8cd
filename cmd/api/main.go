package main

import (
	"context"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"event-portal/internal/app"
	"event-portal/internal/core/config"
	"event-portal/internal/core/logger"
	"event-portal/internal/core/server"
	"event-portal/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad("")
	rot := cfg.Log.Rotate
	log, cleanup := logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Enable:     rot.Enable,
		Filename:   rot.Filename,
		MaxSizeMB:  rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAgeDays: rot.MaxAgeDays,
		Compress:   rot.Compress,
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	a, err := app.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
	}()

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	if err := a.Serve("public api", addr, router.NewAPIEngine(a.Options(), a.Registry)); err != nil {
		log.Error("public api failed", zap.Error(err))
	}
}
