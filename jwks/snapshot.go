package jwks

import (
	"sort"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// SigningKey is one of the identity provider's public verification keys.
// It never carries private material.
type SigningKey struct {
	KeyID     string
	Algorithm jwa.SignatureAlgorithm
	Key       jwk.Key
}

// Snapshot is an immutable view of the provider's key set at FetchedAt.
// A nil *Snapshot behaves like an empty one.
type Snapshot struct {
	keys      map[string]SigningKey
	FetchedAt time.Time
	// MaxAge is the freshness lifetime announced by the provider, or zero.
	MaxAge time.Duration
}

// NewSnapshot builds a snapshot from keys. The slice is copied; later keys
// win on duplicate key ids.
func NewSnapshot(keys []SigningKey, fetchedAt time.Time, maxAge time.Duration) *Snapshot {
	m := make(map[string]SigningKey, len(keys))
	for _, k := range keys {
		m[k.KeyID] = k
	}
	return &Snapshot{keys: m, FetchedAt: fetchedAt, MaxAge: maxAge}
}

// Lookup returns the key with the given id.
func (s *Snapshot) Lookup(kid string) (SigningKey, bool) {
	if s == nil {
		return SigningKey{}, false
	}
	k, ok := s.keys[kid]
	return k, ok
}

// Len returns the number of keys in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// KeyIDs returns the sorted key ids.
func (s *Snapshot) KeyIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.keys))
	for id := range s.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
