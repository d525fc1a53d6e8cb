package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"oftalmo/internal/server/config"
	"oftalmo/internal/server/httpapi"
	"oftalmo/internal/server/repository/sqlite"
	"oftalmo/internal/server/service"
	"oftalmo/internal/shared/models"
)

type App struct {
	version   string
	buildDate string
	logger    *zap.Logger
	server    *http.Server
	repoClose io.Closer
}

func New(cfg config.Config, version, buildDate string, logger *zap.Logger) (*App, error) {
	if cfg.DevSecret() {
		logger.Warn("using development JWT secret; set OFTALMO_JWT_SECRET")
	}
	repo, err := sqlite.New(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	services := service.NewServices(repo, cfg)
	if err := seed(context.Background(), services, cfg, logger); err != nil {
		_ = repo.Close()
		return nil, err
	}

	router := httpapi.NewRouter(services, logger, cfg.MaxRequestBytes)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &App{version: version, buildDate: buildDate, logger: logger, server: server, repoClose: repo}, nil
}

// seed creates the configured practitioner account on first start.
func seed(ctx context.Context, services *service.Services, cfg config.Config, logger *zap.Logger) error {
	if cfg.SeedEmail == "" || cfg.SeedPassword == "" {
		return nil
	}
	u, created, err := services.Auth.EnsureUser(ctx, models.User{
		NomeCompleto: cfg.SeedName,
		CRM:          cfg.SeedCRM,
		Email:        cfg.SeedEmail,
	}, cfg.SeedPassword)
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	if created {
		logger.Info("seed user created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	}
	return nil
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() { _ = a.repoClose.Close() }()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.logger.Info("oftalmo server listening",
		zap.String("version", a.version),
		zap.String("build_date", a.buildDate),
		zap.String("addr", a.server.Addr),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
