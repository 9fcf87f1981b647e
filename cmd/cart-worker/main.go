package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartclient "github.com/amunra1102/grpc-asp-demo/internal/clients/cart"
	catalogclient "github.com/amunra1102/grpc-asp-demo/internal/clients/catalog"
	identityclient "github.com/amunra1102/grpc-asp-demo/internal/clients/identity"
	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/amunra1102/grpc-asp-demo/internal/worker"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := worker.OrchestratorConfig{
		IdentityServerURL: getEnv("IDENTITY_SERVER_URL", "http://localhost:5005"),
		ClientID:          getEnv("CART_CLIENT_ID", "ShoppingCartClient"),
		ClientSecret:      getEnv("CART_CLIENT_SECRET", "secret"),
		Scope:             getEnv("CART_SCOPE", "ShoppingCartAPI"),
		UserName:          getEnv("WORKER_USERNAME", "swn"),
		DiscountCode:      getEnv("WORKER_DISCOUNT_CODE", "CODE_100"),
		ItemColor:         getEnv("WORKER_ITEM_COLOR", "Black"),
		Interval:          getEnvDuration("WORKER_INTERVAL", 10*time.Second),
	}
	cartServiceURL := getEnv("CART_SERVICE_URL", "http://localhost:5002")
	catalogServiceURL := getEnv("CATALOG_SERVICE_URL", "http://localhost:5001")

	zlog, err := logger.New(getEnv("APP_ENV", "dev"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	orchestrator := worker.NewOrchestrator(
		cfg,
		identityclient.NewClient(),
		cartClientAdapter{cartclient.NewClient(cartServiceURL)},
		catalogClientAdapter{catalogclient.NewClient(catalogServiceURL)},
		zlog,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Infow("cart worker started", "user", cfg.UserName, "interval", cfg.Interval)
	if err := orchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Fatalw("cart worker failed", "err", err)
	}
	zlog.Infow("cart worker stopped")
}

// The adapters lift the concrete clients' return types to the orchestrator's
// boundary interfaces.

type cartClientAdapter struct {
	*cartclient.Client
}

func (a cartClientAdapter) AddItems(ctx context.Context) (worker.AddItemsSession, error) {
	return a.Client.AddItems(ctx)
}

type catalogClientAdapter struct {
	*catalogclient.Client
}

func (a catalogClientAdapter) GetAllProducts(ctx context.Context) (worker.ProductStream, error) {
	return a.Client.GetAllProducts(ctx)
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
