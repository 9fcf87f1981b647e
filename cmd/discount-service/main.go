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

	"github.com/amunra1102/grpc-asp-demo/internal/discount/httpapi"
	"github.com/amunra1102/grpc-asp-demo/internal/discount/store"
	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()

	port := getEnv("DISCOUNT_SERVICE_PORT", "5003")

	zlog, err := logger.New(getEnv("APP_ENV", "dev"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	handler := httpapi.NewHandler(store.NewSeededStore(), zlog)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		wire.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	handler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      otelhttp.NewHandler(r, "discount-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Infow("discount service listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("shutting down discount service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Errorw("server forced to shutdown", "err", err)
	}
	zlog.Infow("discount service stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
