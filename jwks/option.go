package jwks

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/authify/authgate/core"
)

const tracerName = "github.com/authify/authgate/jwks"

// ============================================================================
// Provider Options
// ============================================================================

// ProviderOption is how options for the Provider are set up.
type ProviderOption func(*Provider) error

// WithKeysURL sets the endpoint the Provider fetches keys from.
// Defaults to DefaultKeysURL.
func WithKeysURL(keysURL *url.URL) ProviderOption {
	return func(p *Provider) error {
		if keysURL == nil {
			return errors.New("keys URL cannot be nil")
		}
		if keysURL.Scheme != "https" && keysURL.Scheme != "http" {
			return fmt.Errorf("keys URL must be http(s), got %q", keysURL.Scheme)
		}
		p.KeysURL = keysURL
		return nil
	}
}

// WithCustomClient sets a custom HTTP client for the Provider.
// If not specified, a default client with a 10s timeout is used.
func WithCustomClient(c *http.Client) ProviderOption {
	return func(p *Provider) error {
		if c == nil {
			return errors.New("HTTP client cannot be nil")
		}
		p.Client = c
		return nil
	}
}

// WithTimeout bounds each fetch. It replaces the timeout on the client in
// use, so apply it after WithCustomClient.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) error {
		if timeout <= 0 {
			return errors.New("timeout must be positive")
		}
		client := *p.Client
		client.Timeout = timeout
		p.Client = &client
		return nil
	}
}

// WithProviderLogger sets the logger used to report dropped keys.
func WithProviderLogger(logger core.Logger) ProviderOption {
	return func(p *Provider) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// ============================================================================
// Cache Options
// ============================================================================

// CacheOption is how options for the Cache are set up.
type CacheOption func(*Cache) error

const (
	defaultMinRefreshInterval = 30 * time.Second
	defaultRefreshInterval    = time.Hour
)

// NewCache builds an empty Cache over fetcher. Call Prime before serving.
//
// Optional options:
//   - WithMinRefreshInterval: minimum gap between forced refreshes (default: 30s)
//   - WithRefreshInterval: background refresh interval without max-age (default: 1h)
//   - WithLogger, WithMetrics, WithTracer
//
// Example:
//
//	provider, _ := jwks.NewProvider()
//	cache, err := jwks.NewCache(provider, jwks.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cache.Prime(ctx); err != nil {
//	    log.Fatal(err)
//	}
func NewCache(fetcher Fetcher, opts ...CacheOption) (*Cache, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required but was nil")
	}

	c := &Cache{
		fetcher:            fetcher,
		minRefreshInterval: defaultMinRefreshInterval,
		refreshInterval:    defaultRefreshInterval,
		now:                time.Now,
	}
	c.current.Store(NewSnapshot(nil, time.Time{}, 0))

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}

	return c, nil
}

// WithMinRefreshInterval sets the minimum time between two forced refreshes.
// Zero disables throttling.
func WithMinRefreshInterval(d time.Duration) CacheOption {
	return func(c *Cache) error {
		if d < 0 {
			return errors.New("minimum refresh interval cannot be negative")
		}
		c.minRefreshInterval = d
		return nil
	}
}

// WithRefreshInterval sets how often Run refreshes when the provider did not
// announce a max-age.
func WithRefreshInterval(d time.Duration) CacheOption {
	return func(c *Cache) error {
		if d <= 0 {
			return errors.New("refresh interval must be positive")
		}
		c.refreshInterval = d
		return nil
	}
}

// WithLogger sets the logger for refresh outcomes.
func WithLogger(logger core.Logger) CacheOption {
	return func(c *Cache) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics recorder for refresh outcomes.
func WithMetrics(metrics Metrics) CacheOption {
	return func(c *Cache) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = metrics
		return nil
	}
}

// WithTracer overrides the tracer. Defaults to the global OpenTelemetry
// tracer provider.
func WithTracer(tracer trace.Tracer) CacheOption {
	return func(c *Cache) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		c.tracer = tracer
		return nil
	}
}
