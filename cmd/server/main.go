package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zugzwang/internal/config"
	"zugzwang/internal/db"
	"zugzwang/internal/logging"
	"zugzwang/internal/router"
	"zugzwang/internal/services"
	"zugzwang/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	st, closeStore := initStore(cfg, log)
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Seed(ctx, st, cfg, log); err != nil {
		log.Error("seed failed", zap.Error(err))
		return
	}

	svc, err := services.New(st, log, cfg.CacheSize)
	if err != nil {
		log.Error("init services", zap.Error(err))
		return
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		log.Warn("JWT_SECRET is empty, bearer tokens are signed with a development key")
		jwtSecret = "development-only-secret"
	}
	r := router.New(router.Deps{
		Services:      svc,
		Users:         st,
		Log:           log,
		JWTSecret:     jwtSecret,
		SessionSecret: cfg.SessionSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("zugzwang server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server", zap.Error(err))
	}
	log.Info("exit")
}

// initStore picks postgres when DATABASE_URL is set and the in-memory store otherwise.
// Production never falls back.
func initStore(cfg *config.Config, log *zap.Logger) (store.Store, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using the in-memory store")
		return store.NewMemory(), func() {}
	}

	conn, err := db.Open(cfg, log)
	if err != nil {
		if cfg.IsProduction() {
			log.Fatal("postgres is required in production but unavailable", zap.Error(err))
		}
		log.Warn("postgres unavailable, falling back to in-memory store", zap.Error(err))
		return store.NewMemory(), func() {}
	}

	return store.NewGormStore(conn), func() {
		if sqlDB, err := db.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
