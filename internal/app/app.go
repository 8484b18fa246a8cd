// Package app wires configuration, storage and features into the two
// HTTP processes.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"event-portal/internal/core/auth"
	"event-portal/internal/core/config"
	"event-portal/internal/core/mail"
	"event-portal/internal/core/server"
	"event-portal/internal/domain"
	"event-portal/internal/feature/blog"
	"event-portal/internal/feature/session"
	"event-portal/internal/feature/submission"
	"event-portal/internal/repo"
	"event-portal/internal/transport/http/router"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	Store    *domain.Store
	Registry *router.Registry

	submissions *submission.Service
}

// New opens the configured backend and registers every feature module.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	store, err := repo.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}
	if cfg.JWT.Secret == "" {
		log.Warn("jwt.secret is empty, admin tokens are forgeable")
	}

	mailer := mail.New(mail.Config{
		Provider:        cfg.Mail.Provider,
		FromAddress:     cfg.Mail.From,
		FromName:        cfg.Mail.FromName,
		Region:          cfg.Mail.Region,
		AccessKeyID:     cfg.Mail.AccessKeyID,
		SecretAccessKey: cfg.Mail.SecretAccessKey,
	}, log)

	subs := submission.NewService(store, mailer, submission.Bank{
		Amount:             cfg.Payment.Amount,
		Currency:           cfg.Payment.Currency,
		BankName:           cfg.Payment.BankName,
		AccountName:        cfg.Payment.AccountName,
		AccountNumber:      cfg.Payment.AccountNumber,
		BranchInstructions: cfg.Payment.BranchInstructions,
	}, log)
	posts := blog.NewService(store, log)

	reg := (&router.Registry{}).Register(
		session.NewModule(cfg.Admin.Secret, cfg.Admin.SecretHash, jwter, log),
		submission.NewModule(subs, jwter),
		blog.NewModule(posts, jwter),
	)
	return &App{Cfg: cfg, Log: log, Store: store, Registry: reg, submissions: subs}, nil
}

func (a *App) Options() router.Options {
	return router.Options{Log: a.Log, Limits: a.Cfg.Limits, AllowOrigins: a.Cfg.CORS.AllowOrigins}
}

// Close flushes pending notifications and releases the backend.
func (a *App) Close() error {
	a.submissions.Wait()
	if a.Store.Close != nil {
		return a.Store.Close()
	}
	return nil
}

// Serve runs h on addr until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Serve(name, addr string, h http.Handler) error {
	hc := a.Cfg.App.HTTP
	srv := server.BuildServer(addr, h,
		time.Duration(hc.ReadTimeoutSec)*time.Second,
		time.Duration(hc.WriteTimeoutSec)*time.Second,
		time.Duration(hc.IdleTimeoutSec)*time.Second,
		a.Log,
	)

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	a.Log.Info(name+" started", zap.String("addr", addr), zap.String("storage", a.Cfg.Storage.Backend))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	a.Log.Info(name + " stopped gracefully")
	return nil
}
