package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/localpulse/pulse-service/internal/airquality"
	"github.com/localpulse/pulse-service/internal/cache"
	"github.com/localpulse/pulse-service/internal/circuitbreaker"
	"github.com/localpulse/pulse-service/internal/config"
	httphandler "github.com/localpulse/pulse-service/internal/http"
	"github.com/localpulse/pulse-service/internal/models"
	"github.com/localpulse/pulse-service/internal/news"
	"github.com/localpulse/pulse-service/internal/observability"
	"github.com/localpulse/pulse-service/internal/pulse"
	"github.com/localpulse/pulse-service/internal/weather"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := weather.NewHTTPClientWithRetry(
		cfg.WeatherAPIKey,
		cfg.WeatherAPIURL,
		cfg.WeatherAPITimeout,
		cfg.RetryAttempts,
		cfg.RetryBaseDelay,
		cfg.RetryMaxDelay,
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	if cfg.BreakerEnabled {
		cb := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.BreakerFailureThreshold,
			SuccessThreshold: cfg.BreakerSuccessThreshold,
			Timeout:          cfg.BreakerTimeout,
			Component:        "weather_api",
			IsFailure: func(err error) bool {
				return errors.Is(err, weather.ErrUpstream)
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.CircuitBreakerTransitionsTotal.WithLabelValues("weather_api", from.String(), to.String()).Inc()
				observability.CircuitBreakerState.WithLabelValues("weather_api").Set(float64(to))
			},
		})
		weatherClient.SetCircuitBreaker(cb)
		observability.CircuitBreakerState.WithLabelValues("weather_api").Set(0)
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.BreakerFailureThreshold),
			zap.Duration("timeout", cfg.BreakerTimeout))
	}

	var (
		weatherStore cache.Store[weather.Cached]
		airStore     cache.Store[models.AirQualitySnapshot]
		newsStore    cache.Store[[]models.LocalHighlight]
		closers      []func() error
	)
	switch cfg.CacheBackend {
	case "memcached":
		wc, err := cache.NewMemcached[weather.Cached](cfg.MemcachedAddrs, "wx", cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached weather cache", zap.Error(err))
		}
		ac, err := cache.NewMemcached[models.AirQualitySnapshot](cfg.MemcachedAddrs, "aq", cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached air-quality cache", zap.Error(err))
		}
		nc, err := cache.NewMemcached[[]models.LocalHighlight](cfg.MemcachedAddrs, "news", cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached news cache", zap.Error(err))
		}
		weatherStore, airStore, newsStore = wc, ac, nc
		closers = append(closers, wc.Close, ac.Close, nc.Close)
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		weatherStore = cache.NewMemory[weather.Cached]()
		airStore = cache.NewMemory[models.AirQualitySnapshot]()
		newsStore = cache.NewMemory[[]models.LocalHighlight]()
		logger.Info("cache backend: in_memory")
	}

	seed := cfg.MoodSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mood := weather.NewMoodPicker(rand.New(rand.NewSource(seed)))

	weatherSource := weather.NewSource(weatherClient, weatherStore, cfg.WeatherTTL, mood, logger)

	var airClient airquality.Client
	if cfg.AirQualityToken != "" {
		airClient = airquality.NewHTTPClient(cfg.AirQualityToken, cfg.AirQualityAPIURL, cfg.AirQualityTimeout)
	}
	airSource := airquality.NewSource(airClient, airStore, cfg.AirQualityTTL, logger)

	feedClient := news.NewRSSClient(cfg.NewsFeedURL, cfg.NewsTimeout)
	newsSource := news.NewSource(feedClient, newsStore, cfg.NewsTTL, logger)

	users := pulse.NewMemoryUserLocator()
	orchestrator := pulse.NewOrchestrator(weatherSource, airSource, newsSource, users, mood, cfg.RefreshInterval, logger)

	if len(cfg.WarmPlaces) > 0 {
		warmer := pulse.NewWarmer(orchestrator, logger)
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx, cfg.WarmPlaces); err != nil {
			logger.Warn("pulse warming failed", zap.Error(err))
		}
		warmCancel()
		go func() {
			if err := warmer.WarmPeriodic(context.Background(), cfg.WarmPlaces, cfg.WarmInterval); err != nil && err != context.Canceled {
				logger.Error("periodic pulse warming stopped", zap.Error(err))
			}
		}()
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	handler := httphandler.NewHandler(orchestrator, logger)
	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	handler.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("cache close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
