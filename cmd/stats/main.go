package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-marketplace/internal/config"
	kafkax "github.com/ariefcatur/go-marketplace/internal/kafka"
	"github.com/ariefcatur/go-marketplace/internal/logx"
	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/ariefcatur/go-marketplace/internal/redisx"
	"github.com/ariefcatur/go-marketplace/internal/stats"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadStats()
	if err != nil {
		slog.Error("config", "error", err.Error())
		os.Exit(1)
	}
	logger := logx.New(cfg.LogLevel).With("service", cfg.ServiceName+"-stats")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		logger.Error("redis", "event", "fatal", "error", err.Error())
		os.Exit(1)
	}

	svc := &stats.Service{
		Counters:    redisx.NewStatsStore(rdb),
		ServiceName: cfg.ServiceName + "-stats",
		Logger:      logger,
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StatsGroup, market.TopicOrderCreated, cfg.StatsWorkers, logger)

	logger.Info("stats consumer started", "event", "consumer_start",
		"group", cfg.StatsGroup, "topic", market.TopicOrderCreated, "workers", cfg.StatsWorkers)
	if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
		logger.Error("consumer exit", "event", "consumer_exit", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("stats consumer stopped", "event", "consumer_stop")
}
