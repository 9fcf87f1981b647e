package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogclient "github.com/amunra1102/grpc-asp-demo/internal/clients/catalog"
	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/amunra1102/grpc-asp-demo/internal/worker"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	catalogServiceURL := getEnv("CATALOG_SERVICE_URL", "http://localhost:5001")
	namePrefix := getEnv("PRODUCT_NAME_PREFIX", "Handmade")
	interval := getEnvDuration("WORKER_INTERVAL", 10*time.Second)

	zlog, err := logger.New(getEnv("APP_ENV", "dev"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	productWorker := worker.NewProductWorker(
		&worker.ProductFactory{NamePrefix: namePrefix},
		catalogclient.NewClient(catalogServiceURL),
		interval,
		zlog,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Infow("catalog worker started", "prefix", namePrefix, "interval", interval)
	if err := productWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatalw("catalog worker failed", "err", err)
	}
	zlog.Infow("catalog worker stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
