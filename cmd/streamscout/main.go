// cmd/streamscout/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"streamscout/internal/agents"
	"streamscout/internal/agents/briefing"
	"streamscout/internal/agents/clarify"
	healthagent "streamscout/internal/agents/health"
	"streamscout/internal/agents/livestatus"
	"streamscout/internal/agents/trending"
	"streamscout/internal/cache"
	"streamscout/internal/common/config"
	"streamscout/internal/common/database"
	"streamscout/internal/common/logger"
	"streamscout/internal/common/observability"
	"streamscout/internal/datasource"
	"streamscout/internal/dispatch"
	"streamscout/internal/intent"
	"streamscout/internal/recovery"
	"streamscout/internal/router"
	"streamscout/internal/server"
)

const sourceProbeInterval = 30 * time.Second

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
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
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level, format and output.
	if cfg.Logging.Output != "" && cfg.Logging.Output != "stdout" {
		zapLog = logger.NewWithFile(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	} else {
		zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting streamscout...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Cache backend ---
	var store cache.Cache
	var redisClient *database.RedisClient
	if cfg.Cache.Backend == "redis" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		store = cache.NewRedis(redisClient, "", log)
		zapLog.Info("Redis cache connected successfully")
	} else {
		store = cache.NewLRU(cfg.Cache.MaxSize, time.Duration(cfg.Cache.DefaultTTL)*time.Second)
		zapLog.Info("In-memory cache initialized",
			zap.Int("max_size", cfg.Cache.MaxSize),
			zap.Int("default_ttl_s", cfg.Cache.DefaultTTL),
		)
	}

	// --- Data sources in failover priority order ---
	sources := buildSources(cfg, store, log, zapLog)
	data := datasource.NewManager(sources, store, cfg.Sources.MaxFailures, log)

	// --- Resilience primitives ---
	rec := recovery.NewManager(
		cfg.Recovery.FailureThreshold,
		time.Duration(cfg.Recovery.CooldownSeconds)*time.Second,
		log,
	)
	pool := dispatch.NewPool(cfg.Dispatch.MaxConcurrent, log)

	// --- Intent classification ---
	rules := intent.NewRules(cfg.Intents)
	var classifier intent.Classifier = rules
	if cfg.Classifier.Enabled && cfg.Classifier.BaseURL != "" {
		remote := intent.NewRemote(cfg.Classifier.BaseURL, cfg.Classifier.APIKey,
			config.GetDuration(cfg.Classifier.Timeout))
		classifier = intent.WithFallback(remote, rules, cfg.Classifier.ConfidenceThreshold, log)
		zapLog.Info("Remote classifier enabled with rule fallback")
	} else {
		zapLog.Info("Remote classifier disabled, using rule table only")
	}

	// --- Synthesis ---
	var synth briefing.Synthesizer
	if cfg.Synthesis.Enabled && cfg.Synthesis.BaseURL != "" {
		synth = briefing.NewRemoteSynthesizer(cfg.Synthesis.BaseURL, cfg.Synthesis.APIKey,
			config.GetDuration(cfg.Synthesis.Timeout))
		zapLog.Info("Synthesis service enabled")
	}

	// --- Handlers ---
	registry, err := agents.NewRegistry(
		livestatus.NewHandler(data, livestatus.DefaultConfig()),
		trending.NewHandler(data, trending.DefaultConfig()),
		briefing.NewHandler(data, pool, synth, briefing.DefaultConfig(), log),
		healthagent.NewHandler(rec, data),
		clarify.NewHandler(),
	)
	if err != nil {
		zapLog.Fatal("agent registry failed", zap.Error(err))
	}

	rtr, err := router.New(classifier, registry, pool, rec, cfg.Routing, log, obs)
	if err != nil {
		zapLog.Fatal("router setup failed", zap.Error(err))
	}
	zapLog.Info("Router ready", zap.Strings("handlers", registry.IDs()))

	// --- Periodic source health probe ---
	probeCtx, stopProbe := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(sourceProbeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				data.HealthCheckAll(probeCtx)
			case <-probeCtx.Done():
				return
			}
		}
	}()

	// --- HTTP server ---
	srv := server.New(rtr, log, cfg.App.Version)
	httpSrv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	stopProbe()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Streamscout stopped gracefully")
}

// buildSources instantiates the configured backends in priority order.
// Unknown ids are logged and skipped so a config typo degrades instead of
// crashing startup.
func buildSources(cfg *config.Config, store cache.Cache, log logger.Logger, zapLog *zap.Logger) []datasource.Source {
	var sources []datasource.Source
	for _, id := range cfg.Sources.Priority {
		switch id {
		case datasource.SourceLiveAPI:
			if cfg.Sources.Live.BaseURL == "" {
				zapLog.Warn("live_api source configured without base_url, skipping")
				continue
			}
			sources = append(sources, datasource.NewLiveSource(
				cfg.Sources.Live.BaseURL,
				cfg.Sources.Live.AuthToken,
				config.GetDuration(cfg.Sources.Live.Timeout),
				log,
			))
		case datasource.SourceMock:
			sources = append(sources, datasource.NewMockSource())
		case datasource.SourceCache:
			sources = append(sources, datasource.NewCacheSource(store))
		default:
			zapLog.Warn("unknown data source in priority list, skipping",
				zap.String("source", id))
		}
	}
	return sources
}
