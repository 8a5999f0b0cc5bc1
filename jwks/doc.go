/*
Package jwks fetches and caches the identity provider's public signing keys.

# Overview

Provider performs one HTTP GET against the key endpoint, which answers with a
JSON object mapping key ids to PEM-encoded X.509 certificates (or PEM public
keys). It returns a complete Snapshot; unparseable entries are dropped with a
warning.

Cache owns the current Snapshot:
  - Lookup is a lock-free read of an atomically swapped snapshot pointer
  - Refresh collapses concurrent callers into one in-flight fetch (singleflight)
  - a failed refresh keeps the previous snapshot
  - forced refreshes are rate limited (WithMinRefreshInterval)
  - Run optionally refreshes in the background at 80% of the provider's max-age

# Usage

	provider, err := jwks.NewProvider(jwks.WithTimeout(5 * time.Second))
	if err != nil {
	    log.Fatal(err)
	}

	cache, err := jwks.NewCache(provider,
	    jwks.WithMinRefreshInterval(30*time.Second),
	    jwks.WithLogger(logger),
	)
	if err != nil {
	    log.Fatal(err)
	}

	// Fail fast: never serve without keys.
	if err := cache.Prime(ctx); err != nil {
	    log.Fatal(err)
	}
	go cache.Run(ctx)

	v, err := validator.New(
	    validator.WithKeyCache(cache),
	    validator.ForFirebaseProject("my-project"),
	)

# Key rotation

When a token names a key id that is not cached, the validator calls Refresh
once and looks the key up again. Requests that miss at the same time share
the same fetch.
*/
package jwks
