package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adserve-platform/internal/audit"
	"adserve-platform/internal/auth"
	"adserve-platform/internal/campaign"
	"adserve-platform/internal/config"
	"adserve-platform/internal/earnings"
	"adserve-platform/internal/geo"
	"adserve-platform/internal/httpapi"
	"adserve-platform/internal/pricing"
	"adserve-platform/internal/publisher"
	"adserve-platform/internal/session"
	"adserve-platform/internal/tracking"
	"adserve-platform/pkg/logger"
	"adserve-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local convenience; absent .env files are fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	table, err := pricing.Load(cfg.Pricing.RatesPath)
	if err != nil {
		log.Error("rate table load failed", "err", err)
		os.Exit(1)
	}
	engine, err := pricing.NewEngine(table)
	if err != nil {
		log.Error("pricing init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	tokenIssuer, err := session.NewTokenIssuer(cfg.Tracking.SessionSecret)
	if err != nil {
		log.Error("session issuer init failed", "err", err)
		os.Exit(1)
	}
	sessions := session.NewManager(tokenIssuer, session.NewPostgresRepo(db), session.ManagerConfig{
		SessionTTL:      cfg.Tracking.SessionTTL,
		DBExpiryBuffer:  cfg.Tracking.DBExpiryBuffer,
		BlacklistMaxAge: cfg.Tracking.BlacklistMaxAge,
	})

	resolver := geo.NewResolver(geo.Config{
		PrimaryURL:  cfg.Geo.PrimaryURL,
		FallbackURL: cfg.Geo.FallbackURL,
		Timeout:     cfg.Geo.Timeout,
		Debug:       cfg.Debug(),
	})

	campaigns := campaign.NewPostgresRepo(db)
	pipeline := tracking.NewPipeline(tracking.PipelineConfig{
		Store:           tracking.NewPostgresStore(db),
		Guard:           tracking.NewDuplicateGuard(rdb, cfg.Tracking.DuplicateWindow),
		Geo:             resolver,
		Engine:          engine,
		Campaigns:       campaigns,
		Logs:            audit.NewService(audit.NewPostgresRepo(db)),
		Cleaner:         sessions,
		DuplicateWindow: cfg.Tracking.DuplicateWindow,
	})

	earningsService := earnings.NewService(earnings.NewPostgresRepo(db), earnings.PayoutTerms{
		MinimumPayout: engine.MinimumPayout(),
		Schedule:      engine.PaymentSchedule(),
	})

	handlers := httpapi.Handlers{
		Auth:       authManager,
		Sessions:   sessions,
		Pipeline:   pipeline,
		Campaigns:  campaign.NewService(campaigns),
		Earnings:   earningsService,
		Publishers: publisher.NewPostgresRepo(db),
		Cookie: httpapi.CookieConfig{
			Name:   cfg.Tracking.SessionCookie,
			Secure: !cfg.Debug(),
		},
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, auth.RequireAccessToken(authManager), db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "rates_version", engine.Version())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	log.Info("shutdown complete")
}
