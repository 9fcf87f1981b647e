package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/cart/cache"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/httpapi"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/poller"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/repository"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/service"
	discountclient "github.com/amunra1102/grpc-asp-demo/internal/clients/discount"
	"github.com/amunra1102/grpc-asp-demo/internal/identity"
	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()

	port := getEnv("CART_SERVICE_PORT", "5002")
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDBName := getEnv("MONGO_DB_NAME", "cartdb")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")
	discountURL := getEnv("DISCOUNT_SERVICE_URL", "http://localhost:5003")
	jwtSecret := getEnv("JWT_SECRET", "dev-signing-secret")
	scope := getEnv("CART_SCOPE", "ShoppingCartAPI")
	kafkaBrokers := getEnv("KAFKA_BROKERS", "")

	zlog, err := logger.New(getEnv("APP_ENV", "dev"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, mongoURI, mongoDBName)
	if err != nil {
		zlog.Fatalw("failed to connect to MongoDB", "err", err)
	}
	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		zlog.Fatalw("failed to ensure indexes", "err", err)
	}
	repo := repository.NewMongoRepository(mongoDB)
	zlog.Infow("connected to MongoDB", "uri", mongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zlog.Fatalw("redis connection failed", "err", err)
	}
	cartCache := cache.NewRedisCache(redisClient)

	discounts := discountResolver{client: discountclient.NewClient(discountURL)}
	cartService := service.NewCartService(repo, cartCache, discounts, zlog)
	verifier := identity.NewVerifier([]byte(jwtSecret), scope)
	handler := httpapi.NewHandler(cartService, verifier, zlog)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		wire.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	handler.Routes(r)

	// Cart removal is event-driven: only a completed checkout ends a cart.
	var checkoutPoller *poller.Poller
	pollerCtx, cancelPoller := context.WithCancel(ctx)
	defer cancelPoller()
	if kafkaBrokers != "" {
		checkoutPoller = poller.NewPoller(repo, cartCache, zlog, strings.Split(kafkaBrokers, ",")...)
		go checkoutPoller.Run(pollerCtx)
		zlog.Infow("checkout poller started", "brokers", kafkaBrokers)
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      otelhttp.NewHandler(r, "cart-service"),
		ReadTimeout:  0, // streamed add-items sessions have no read deadline
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Infow("cart service listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("shutting down cart service")
	cancelPoller()
	if checkoutPoller != nil {
		checkoutPoller.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Errorw("server forced to shutdown", "err", err)
	}
	if err := mongoDB.Client().Disconnect(ctx); err != nil {
		zlog.Errorw("mongo disconnect failed", "err", err)
	}
	zlog.Infow("cart service stopped")
}

// discountResolver adapts the HTTP discount client to the service boundary.
type discountResolver struct {
	client *discountclient.Client
}

func (r discountResolver) GetDiscount(ctx context.Context, code string) (*service.Discount, error) {
	d, err := r.client.GetDiscount(ctx, code)
	if err != nil {
		return nil, err
	}
	return &service.Discount{Code: d.Code, Amount: d.Amount}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
