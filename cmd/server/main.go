package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"flow4ops/internal/app/server"
	"flow4ops/internal/platform/config"
	"flow4ops/internal/platform/logger"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	app, err := server.New(context.Background(), cfg, zlog)
	if err != nil {
		zlog.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		zlog.Fatal("server failed", zap.Error(err))
	}
}
