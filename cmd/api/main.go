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

	"github.com/ariefcatur/go-marketplace/internal/auth"
	"github.com/ariefcatur/go-marketplace/internal/catalog"
	"github.com/ariefcatur/go-marketplace/internal/config"
	"github.com/ariefcatur/go-marketplace/internal/httpx"
	kafkax "github.com/ariefcatur/go-marketplace/internal/kafka"
	"github.com/ariefcatur/go-marketplace/internal/logx"
	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/ariefcatur/go-marketplace/internal/memstore"
	"github.com/ariefcatur/go-marketplace/internal/orders"
	"github.com/ariefcatur/go-marketplace/internal/postgres"
	"github.com/ariefcatur/go-marketplace/internal/ratelimit"
	"github.com/ariefcatur/go-marketplace/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err.Error())
		os.Exit(1)
	}
	logger := logx.New(cfg.LogLevel).With("service", cfg.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var store market.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on exit", "event", "store_memory")
		store = memstore.New()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal(logger, "db connect", err)
		}
		defer db.Close()
		if cfg.ApplySchema {
			if err := postgres.ApplySchema(ctx, db); err != nil {
				fatal(logger, "db schema", err)
			}
		}
		store = &postgres.Store{DB: db}
	}

	// Redis: catalog cache and stats counters
	var (
		cache catalog.Cache
		stats httpx.SellerStatsReader
	)
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			fatal(logger, "redis", err)
		}
		cache = redisx.NewCatalogCache(rdb, cfg.CatalogCacheTTL)
		stats = redisx.NewStatsStore(rdb)
	}

	// Kafka producer
	var (
		publisher market.Publisher = market.NopPublisher{}
		prod      *kafkax.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
		prod.Start(ctx)
		publisher = prod
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		fatal(logger, "tokens", err)
	}
	if cfg.BcryptCost < bcrypt.DefaultCost {
		logger.Warn("bcrypt cost below default", "event", "bcrypt_cost_low", "cost", cfg.BcryptCost)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := httpx.NewRouter(logger, httpx.NewMetrics(reg), cfg.RequestTimeout)
	h := &httpx.Handler{
		Auth:    auth.NewService(store, tokens, auth.Hasher{Cost: cfg.BcryptCost}, logger),
		Catalog: catalog.NewService(store, cache, publisher, cfg.ServiceName, logger),
		Orders:  orders.NewService(store, publisher, cfg.ServiceName, logger),
		Stats:   stats,
		Limiter: ratelimit.New(cfg.LoginRateRPS, cfg.LoginRateBurst, 10*time.Minute),
		Logger:  logger,
		Timeout: cfg.RequestTimeout,
	}
	h.Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http listening", "event", "http_listen", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "listen", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down", "event", "shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "event", "http_shutdown_failed", "error", err.Error())
	}
	if prod != nil {
		prod.Close() // flush queued events before the writer closes
		prod.WaitClosed()
	}
	cancel()
}

func fatal(logger *slog.Logger, what string, err error) {
	logger.Error(what, "event", "fatal", "error", err.Error())
	os.Exit(1)
}
