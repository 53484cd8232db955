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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/order-management/internal/eventlog/sqlite"
	"github.com/jcmexdev/order-management/internal/order-service/adapters/httpx"
	"github.com/jcmexdev/order-management/internal/order-service/adapters/memory"
	"github.com/jcmexdev/order-management/internal/order-service/app"
	"github.com/jcmexdev/order-management/internal/pkg/cache"
	"github.com/jcmexdev/order-management/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "order-service"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	eventLog, err := sqlite.Open(getEnv("EVENTLOG_DB", "./data/orders.db"))
	if err != nil {
		slog.Error("failed to open event log", "error", err)
		os.Exit(1)
	}
	defer eventLog.Close()

	snapshots := cache.NewRedisCache(getEnv("REDIS_ADDR", "redis-cache:6379"), "order")

	repo := memory.NewRepository()
	svc := app.NewService(repo, eventLog)
	handler := httpx.NewHandler(svc, snapshots)
	router := httpx.NewRouter(handler)

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(router, "order-service"),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("order service running", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
