package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/uclergnlts/tav-egitim/auth"
	"github.com/uclergnlts/tav-egitim/internal/audit"
	"github.com/uclergnlts/tav-egitim/internal/config"
	"github.com/uclergnlts/tav-egitim/internal/db"
	"github.com/uclergnlts/tav-egitim/internal/logging"
	"github.com/uclergnlts/tav-egitim/internal/policy"
	"github.com/uclergnlts/tav-egitim/internal/ratelimit"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	dbConn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	seedOpts := db.SeedOptions{
		AdminSicilNo:  cfg.App.AdminSicilNo,
		AdminFullName: cfg.App.AdminFullName,
		AdminPassword: cfg.App.AdminPassword,
		AllowDevAdmin: cfg.App.Dev,
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Msg("migrations completed successfully")
		return
	}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn, seedOpts); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
		log.Info().Msg("seeding completed successfully")
		return
	}

	if cfg.App.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn, seedOpts); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
	}

	sessions, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.CookieSecure)
	if err != nil {
		log.Fatal().Err(err).Msg("session manager")
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Options{SweepInterval: cfg.RateLimit.SweepInterval})
		defer limiter.Stop()
	}

	auditStore := audit.NewGormStore(dbConn)
	auditLog := audit.NewLogger(auditStore, cfg.Audit.BufferSize)

	app := NewApp(Deps{
		DB:         dbConn,
		Sessions:   sessions,
		AuthGate:   policy.NewAuthGate(dbConn, cfg.Auth.ProfileTTL),
		Limiter:    limiter,
		Audit:      auditLog,
		AuditStore: auditStore,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Bool("dev", cfg.App.Dev).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	// drain queued audit entries before the database goes away
	_ = auditLog.Close()
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped gracefully")
}
