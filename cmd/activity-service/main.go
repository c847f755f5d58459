// cmd/activity-service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pedagoplay/internal/api"
	"pedagoplay/internal/common/cache"
	"pedagoplay/internal/common/camunda"
	"pedagoplay/internal/common/config"
	httpkit "pedagoplay/internal/common/http"
	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/markup"
	"pedagoplay/internal/common/observability"
	"pedagoplay/internal/common/openrouter"
	planactivities "pedagoplay/internal/workers/activities/plan-activities"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s interrupted: %w", operationName, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	boot := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal("config load failed", zap.Error(err))
	}
	_ = boot.Sync()

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting activity service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Tracing & Metrics ---
	tp, err := observability.NewTracerProvider(observability.TracingOptions{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("tracer provider init failed", zap.Error(err))
	}
	obs, err := observability.New(cfg.App.Name, tp)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	checks := map[string]api.Check{}

	// --- Optional Redis completion cache ---
	clientOpts := []openrouter.Option{
		openrouter.WithHTTPClient(httpkit.NewClient(10 * time.Second)),
		openrouter.WithFormatter(markup.NewHTMLFormatter()),
		openrouter.WithLogger(log),
		openrouter.WithTracer(obs.Tracer("pedagoplay/openrouter")),
	}
	if cfg.Redis.Enabled {
		rc := cache.NewRedis(cfg.Redis)
		err = retryWithBackoff(ctx, func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return rc.Ping(pingCtx)
		}, 5, time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, completions will not be cached", zap.Error(err))
			_ = rc.Close()
		} else {
			defer rc.Close()
			completionCache := cache.NewCompletionCache(rc, cfg.Redis.CacheTTLDuration())
			clientOpts = append(clientOpts, openrouter.WithCache(completionCache))
			checks["redis"] = rc.Ping
			zapLog.Info("Redis connected successfully",
				zap.String("address", cfg.Redis.Address),
				zap.Duration("cacheTTL", completionCache.TTL()),
			)
		}
	}

	completer := openrouter.NewClient(
		openrouter.ConfigFromAppConfig(cfg.OpenRouter),
		openrouter.DefaultCredentials(cfg.OpenRouter.APIKey, cfg.OpenRouter.CredentialFile),
		clientOpts...,
	)

	// --- Optional Zeebe client ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClientFromConfig(cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))
	}

	handler, err := planactivities.NewHandler(planactivities.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       zeebe,
		Logger:        log.With(map[string]interface{}{"worker": planactivities.TaskType}),
		Completer:     completer,
		Observability: obs,
	})
	if err != nil {
		zapLog.Fatal("handler init failed", zap.Error(err))
	}
	if zeebe != nil {
		if err := handler.Register(); err != nil {
			zapLog.Fatal("worker registration failed", zap.Error(err))
		}
		defer handler.Close()
		checks["zeebe"] = handler.HealthCheck
	}

	// --- HTTP servers ---
	server := api.NewServer(api.Options{
		Planner:        handler,
		Logger:         log.With(map[string]interface{}{"component": "api"}),
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Checks:         checks,
	})

	servers := []*http.Server{{
		Addr:              cfg.Server.Address,
		Handler:           server.Handler(),
		ReadHeaderTimeout: config.GetDuration(cfg.Server.ReadTimeout),
	}}
	if cfg.Metrics.Address != "" && cfg.Metrics.Address != cfg.Server.Address {
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           server.OpsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			zapLog.Info("HTTP server listening", zap.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// --- Graceful Shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()

		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zapLog.Error("Error shutting down server", zap.String("address", srv.Addr), zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("Activity service stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Activity service stopped gracefully")
}
