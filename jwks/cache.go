package jwks

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/authify/authgate/core"
)

// ErrRefreshThrottled is returned by Refresh when the previous refresh attempt
// is more recent than the configured minimum interval.
var ErrRefreshThrottled = errors.New("key refresh throttled")

const refreshKey = "keys"

// Fetcher produces a complete key snapshot. *Provider implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Metrics records key refresh results ("success", "failure", "throttled")
// and the size of the current snapshot.
type Metrics interface {
	ObserveKeyRefresh(result string)
	SetSigningKeys(n int)
}

// Cache holds the current key snapshot and coordinates its refreshes.
//
// Lookups read an atomically swapped snapshot pointer and never block.
// Concurrent refreshes collapse into one in-flight fetch. A failed refresh
// keeps the previous snapshot.
type Cache struct {
	fetcher Fetcher
	current atomic.Pointer[Snapshot]
	group   singleflight.Group

	// unix nanoseconds of the last fetch attempt, 0 before the first.
	lastAttempt atomic.Int64

	minRefreshInterval time.Duration
	refreshInterval    time.Duration

	logger  core.Logger
	metrics Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Lookup returns the signing key for kid from the current snapshot.
// It never performs network I/O.
func (c *Cache) Lookup(kid string) (SigningKey, bool) {
	return c.current.Load().Lookup(kid)
}

// Snapshot returns the current snapshot. It is empty until the first
// successful refresh.
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Refresh fetches a new snapshot and swaps it in.
//
// Callers arriving while a fetch is in flight wait for that fetch and share
// its result. The fetch is detached from ctx's cancellation; it is bounded by
// the fetcher's own timeout. A refresh started within the minimum interval of
// the previous attempt returns ErrRefreshThrottled without fetching.
// Failures wrap core.ErrKeyProviderUnavailable and leave the current snapshot
// in place.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.refresh(ctx, true)
}

// Prime performs the startup refresh. It ignores the minimum interval; a
// failure means the service has no keys and must not serve traffic.
func (c *Cache) Prime(ctx context.Context) error {
	if err := c.refresh(ctx, false); err != nil {
		return err
	}
	if c.logger != nil {
		snap := c.current.Load()
		c.logger.Info("signing keys loaded", "keys", snap.Len(), "kids", snap.KeyIDs())
	}
	return nil
}

// Run refreshes the snapshot in the background until ctx is done. A refresh
// is due at 80% of the provider's max-age, or after the refresh interval when
// the provider sent none. Failures are logged and the snapshot retained.
func (c *Cache) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(c.untilNextRefresh())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := c.refresh(ctx, false); err != nil && c.logger != nil {
			c.logger.Debug("background key refresh failed", "error", err)
		}
	}
}

func (c *Cache) untilNextRefresh() time.Duration {
	snap := c.current.Load()

	interval := c.refreshInterval
	if snap.MaxAge > 0 {
		interval = snap.MaxAge * 4 / 5
	}

	wait := snap.FetchedAt.Add(interval).Sub(c.now())

	// After a failure FetchedAt stays in the past; retry no faster than
	// forced refreshes are allowed.
	floor := c.minRefreshInterval
	if floor <= 0 {
		floor = time.Second
	}
	if wait < floor {
		wait = floor
	}
	return wait
}

func (c *Cache) throttled() bool {
	if c.minRefreshInterval <= 0 {
		return false
	}
	last := c.lastAttempt.Load()
	if last == 0 {
		return false
	}
	return c.now().Sub(time.Unix(0, last)) < c.minRefreshInterval
}

// refresh runs one single-flight fetch. Only the caller that starts the flight
// applies the throttle; callers joining it share whatever it returns.
func (c *Cache) refresh(ctx context.Context, throttle bool) error {
	fetchCtx := context.WithoutCancel(ctx)

	_, err, shared := c.group.Do(refreshKey, func() (any, error) {
		if throttle && c.throttled() {
			if c.metrics != nil {
				c.metrics.ObserveKeyRefresh("throttled")
			}
			return nil, ErrRefreshThrottled
		}
		return nil, c.fetchAndSwap(fetchCtx)
	})
	if shared && c.logger != nil {
		c.logger.Debug("joined in-flight key refresh")
	}
	return err
}

func (c *Cache) fetchAndSwap(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "jwks.refresh")
	defer span.End()

	c.lastAttempt.Store(c.now().UnixNano())

	snap, err := c.fetcher.Fetch(ctx)
	if err == nil && snap == nil {
		err = errors.New("fetcher returned no snapshot")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		if c.metrics != nil {
			c.metrics.ObserveKeyRefresh("failure")
		}
		if c.logger != nil {
			c.logger.Error("signing key refresh failed, keeping current keys",
				"error", err,
				"cached_keys", c.current.Load().Len())
		}
		return fmt.Errorf("%w: %w", core.ErrKeyProviderUnavailable, err)
	}

	c.current.Store(snap)

	span.SetAttributes(attribute.Int("jwks.keys", snap.Len()))
	if c.metrics != nil {
		c.metrics.ObserveKeyRefresh("success")
		c.metrics.SetSigningKeys(snap.Len())
	}
	if c.logger != nil {
		c.logger.Debug("signing keys refreshed", "keys", snap.Len(), "max_age", snap.MaxAge)
	}

	return nil
}
