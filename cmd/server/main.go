package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"payloadbridge/internal/config"
	"payloadbridge/internal/infrastructure/httpclient"
	"payloadbridge/internal/infrastructure/logger"
	"payloadbridge/internal/infrastructure/metrics"
	"payloadbridge/internal/infrastructure/telemetry"
	"payloadbridge/internal/order"
	"payloadbridge/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Tracing.Enabled {
		shutdownTracer, err := telemetry.InitTracer(cfg.Tracing, os.Stdout, zapLogger)
		if err != nil {
			zapLogger.Fatal("initializing tracing", zap.Error(err))
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				zapLogger.Error("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	registry := metrics.NewRegistry()
	client := httpclient.New(cfg.HTTPClient)

	orderCtrl := order.NewModule(client, cfg, registry, zapLogger)

	router := server.NewRouter(orderCtrl, registry, cfg.Recvue.LegacyBridgeEnabled(), zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
