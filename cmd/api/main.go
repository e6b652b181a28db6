// Package main implements the AutoSphere marketplace API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/WessleyAI/autosphere/engine/advisor"
	"github.com/WessleyAI/autosphere/engine/catalog"
	"github.com/WessleyAI/autosphere/engine/events"
	"github.com/WessleyAI/autosphere/engine/session"
	"github.com/WessleyAI/autosphere/pkg/fn"
	"github.com/WessleyAI/autosphere/pkg/gemini"
	"github.com/WessleyAI/autosphere/pkg/llm"
	"github.com/WessleyAI/autosphere/pkg/metrics"
	"github.com/WessleyAI/autosphere/pkg/mid"
	"github.com/WessleyAI/autosphere/pkg/natsutil"
	"github.com/WessleyAI/autosphere/pkg/ollama"
	"github.com/WessleyAI/autosphere/pkg/resilience"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	CORSOrigin string
	LogLevel   string
	LogFormat  string

	AIBackend  string
	AIModel    string
	GeminiKey  string
	OllamaURL  string
	AITimeout  time.Duration
	MarketYear int

	AIRateLimit      float64
	AIRateBurst      int
	BreakerThreshold int
	BreakerTimeout   time.Duration
	MaxAttempts      int

	NATSURL    string
	SessionTTL time.Duration
}

func loadConfig() Config {
	backend := envOr("AI_BACKEND", "gemini")
	return Config{
		Port:       envOr("PORT", "8080"),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),
		LogLevel:   envOr("LOG_LEVEL", "info"),
		LogFormat:  envOr("LOG_FORMAT", "json"),

		AIBackend:  backend,
		AIModel:    envOr("AI_MODEL", defaultModel(backend)),
		GeminiKey:  envOr("GEMINI_API_KEY", os.Getenv("API_KEY")),
		OllamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		AITimeout:  envDuration("AI_TIMEOUT", 30*time.Second),
		MarketYear: envInt("MARKET_YEAR", time.Now().Year()),

		AIRateLimit:      envFloat("AI_RATE_LIMIT", 2),
		AIRateBurst:      envInt("AI_RATE_BURST", 5),
		BreakerThreshold: envInt("AI_BREAKER_THRESHOLD", 5),
		BreakerTimeout:   envDuration("AI_BREAKER_TIMEOUT", 30*time.Second),
		MaxAttempts:      envInt("AI_MAX_ATTEMPTS", 1),

		NATSURL:    os.Getenv("NATS_URL"),
		SessionTTL: envDuration("SESSION_TTL", session.DefaultTTL),
	}
}

// defaultModel returns the model used when AI_MODEL is unset.
func defaultModel(backend string) string {
	if backend == "ollama" {
		return ollama.DefaultModel
	}
	return advisor.DefaultOptions().Model
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// buildGenerator selects the AI backend and layers the call policies on it:
// retry outermost, then the circuit breaker, then the rate limiter.
func buildGenerator(ctx context.Context, cfg Config, logger *slog.Logger, m *metrics.Metrics) (llm.Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var gen llm.Generator
	switch cfg.AIBackend {
	case "gemini":
		c, err := gemini.New(ctx, cfg.GeminiKey, cfg.AIModel)
		switch {
		case errors.Is(err, gemini.ErrMissingAPIKey):
			logger.Warn("GEMINI_API_KEY not set, AI search and insights will fail until it is configured")
			gen = llm.Unavailable(err)
		case err != nil:
			return nil, err
		default:
			gen = c
		}
	case "ollama":
		gen = ollama.NewClient(cfg.OllamaURL, cfg.AIModel)
	default:
		return nil, fmt.Errorf("unknown AI_BACKEND %q", cfg.AIBackend)
	}

	if cfg.AIRateLimit > 0 {
		gen = advisor.WithRateLimit(gen, resilience.NewLimiter(resilience.LimiterOpts{
			Rate:  cfg.AIRateLimit,
			Burst: cfg.AIRateBurst,
			Wait:  true,
		}))
	}
	gen = advisor.WithBreaker(gen, resilience.NewBreaker(resilience.BreakerOpts{
		FailThreshold: cfg.BreakerThreshold,
		Timeout:       cfg.BreakerTimeout,
		OnStateChange: func(from, to resilience.State) {
			m.BreakerState("advisor", int(to))
			logger.Warn("advisor circuit breaker state change", "from", from.String(), "to", to.String())
		},
	}))
	if cfg.MaxAttempts > 1 {
		opts := fn.DefaultRetry
		opts.MaxAttempts = cfg.MaxAttempts
		gen = advisor.WithRetry(gen, opts)
	}
	return gen, nil
}

func buildPublisher(cfg Config, logger *slog.Logger) (events.Publisher, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NATSURL == "" {
		return events.Nop{}, func() {}
	}
	nc, err := natsutil.Connect(cfg.NATSURL, "autosphere-api", logger)
	if err != nil {
		logger.Warn("nats unavailable, events disabled", "err", err)
		return events.Nop{}, func() {}
	}
	return events.NewNATSPublisher(nc, logger), func() { nc.Drain() }
}

// ingressLimiter limits the AI endpoints. A non-positive rate disables it.
func ingressLimiter(cfg Config) *rate.Limiter {
	limit := rate.Limit(cfg.AIRateLimit)
	if limit <= 0 {
		limit = rate.Inf
	}
	return rate.NewLimiter(limit, max(cfg.AIRateBurst, 1))
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gen, err := buildGenerator(ctx, cfg, logger, m)
	if err != nil {
		return fmt.Errorf("ai backend: %w", err)
	}
	opts := advisor.DefaultOptions()
	opts.Model = cfg.AIModel
	opts.MarketYear = cfg.MarketYear
	opts.Timeout = cfg.AITimeout
	adv := advisor.New(gen, opts, logger, m)

	pub, closePub := buildPublisher(cfg, logger)
	defer closePub()

	cat := catalog.MustNew(catalog.Fixture())
	store := session.NewStore(session.Deps{
		Catalog:   cat,
		Advisor:   adv,
		Publisher: pub,
		Logger:    logger,
		Metrics:   m,
	}, cfg.SessionTTL)
	go store.Run(ctx, time.Minute)

	// Background AI work outlives the request that started it but not the
	// server.
	bg, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	api := newServer(cat, store, reg, bg, logger, ingressLimiter(cfg))
	handler := mid.Chain(api.routes(),
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("autosphere-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "ai_backend", cfg.AIBackend, "model", cfg.AIModel)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutCtx)
	api.close()
	cancelBg()
	api.wait()
	return err
}
