package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/identity"
	"github.com/amunra1102/grpc-asp-demo/internal/identity/httpapi"
	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()

	port := getEnv("IDENTITY_SERVICE_PORT", "5005")
	issuerURL := getEnv("IDENTITY_ISSUER_URL", "http://localhost:"+port)
	jwtSecret := getEnv("JWT_SECRET", "dev-signing-secret")
	clientID := getEnv("CART_CLIENT_ID", "ShoppingCartClient")
	clientSecret := getEnv("CART_CLIENT_SECRET", "secret")
	scope := getEnv("CART_SCOPE", "ShoppingCartAPI")

	zlog, err := logger.New(getEnv("APP_ENV", "dev"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	issuer := identity.NewIssuer(issuerURL, []byte(jwtSecret), time.Hour, []identity.Client{
		{ID: clientID, Secret: clientSecret, Scopes: []string{scope}},
	})
	handler := httpapi.NewHandler(issuer, issuerURL, zlog)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	handler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      otelhttp.NewHandler(r, "identity-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Infow("identity service listening", "port", port, "issuer", issuerURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("shutting down identity service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Errorw("server forced to shutdown", "err", err)
	}
	zlog.Infow("identity service stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
