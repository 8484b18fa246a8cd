package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
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
	"event-portal/pkg/utils"
)

func main() {
	hash := flag.Bool("hash-secret", false, "read an admin secret from stdin, print its bcrypt hash and exit")
	flag.Parse()
	if *hash {
		if err := printSecretHash(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

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

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	if err := a.Serve("admin api", addr, router.NewAdminEngine(a.Options(), a.Registry)); err != nil {
		log.Error("admin api failed", zap.Error(err))
	}
}

// printSecretHash turns the first line of in into a value for
// admin.secretHash (APP_ADMIN_SECRETHASH).
func printSecretHash(in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Scan()
	if err := sc.Err(); err != nil {
		return err
	}
	secret := strings.TrimRight(sc.Text(), "\r")
	if secret == "" {
		return errors.New("empty secret")
	}
	h, err := utils.HashSecret(secret)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, h)
	return err
}
