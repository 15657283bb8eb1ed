package main

import (
	"context"
	"os/signal"
	"syscall"

	"stockcache/config"
	"stockcache/internal/stock/app"
	"stockcache/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("failed to start stockcache", zap.Error(err))
	}

	if err := service.Run(ctx); err != nil {
		log.Fatal("stockcache failed", zap.Error(err))
	}
}
