// Command authgate serves the posting API's authentication layer: it loads
// the identity provider's signing keys, then answers protected routes only
// for callers with a valid bearer credential.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/authify/authgate"
	"github.com/authify/authgate/internal/config"
	"github.com/authify/authgate/internal/server"
	"github.com/authify/authgate/jwks"
	"github.com/authify/authgate/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger, err := newLogger(cfg.Observability)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
	logger.Info("server exited")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	log := authgate.NewLogrusLogger(logger)

	metrics, err := authgate.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	cache, err := loadKeys(ctx, cfg.Auth, log, metrics)
	if err != nil {
		return err
	}

	if cfg.Auth.BackgroundRefresh {
		go cache.Run(ctx)
	}

	v, err := validator.New(
		validator.WithKeyCache(cache),
		validator.ForFirebaseProject(cfg.Auth.ProjectID),
		validator.WithAllowedClockSkew(cfg.Auth.ClockSkew),
		validator.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("creating validator: %w", err)
	}

	gate, err := authgate.New(
		authgate.WithValidator(v),
		authgate.WithLogger(log),
		authgate.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("creating gate: %w", err)
	}

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := server.New(cfg, server.Deps{
		Core:     gate.Core(),
		Logger:   logger,
		Gatherer: prometheus.DefaultGatherer,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

// loadKeys builds the key cache and primes it. The process must not serve
// without keys, so any failure here is fatal.
func loadKeys(ctx context.Context, cfg config.AuthConfig, log authgate.Logger, metrics jwks.Metrics) (*jwks.Cache, error) {
	providerOpts := []jwks.ProviderOption{
		jwks.WithTimeout(cfg.KeyFetchTimeout),
		jwks.WithProviderLogger(log),
	}
	if cfg.KeysURL != "" {
		keysURL, err := url.Parse(cfg.KeysURL)
		if err != nil {
			return nil, fmt.Errorf("parsing AUTH_KEYS_URL: %w", err)
		}
		providerOpts = append(providerOpts, jwks.WithKeysURL(keysURL))
	}
	provider, err := jwks.NewProvider(providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating key provider: %w", err)
	}

	cache, err := jwks.NewCache(provider,
		jwks.WithMinRefreshInterval(cfg.MinRefreshInterval),
		jwks.WithLogger(log),
		jwks.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("creating key cache: %w", err)
	}

	if err := cache.Prime(ctx); err != nil {
		return nil, fmt.Errorf("loading signing keys: %w", err)
	}
	return cache, nil
}

func newLogger(cfg config.ObservabilityConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	switch cfg.LogFormat {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	return logger, nil
}
