// Package cache provides result caching for tree searches.
//
// A cache entry maps a deterministic key (matrix content hash plus search
// parameters) to the serialized result document. Backends cover the three
// deployment shapes: file-based for CLI usage, Redis for shared server
// deployments, and a null cache for tests or --no-cache runs.
package cache

import (
	"context"
	"time"
)

// TTLResult is the default time-to-live for cached search results.
// Results are pure functions of matrix and parameters, so the TTL only
// bounds disk usage, not staleness.
const TTLResult = 30 * 24 * time.Hour

// Cache is the storage contract shared by all backends.
//
// Get reports a miss with (nil, false, nil); errors are reserved for
// backend failures. A TTL of 0 on Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys for search results.
type Keyer interface {
	// ResultKey derives the key for a search over the matrix with the
	// given content hash and parameters.
	ResultKey(matrixHash string, opts ResultKeyOpts) string
}

// ResultKeyOpts are the search parameters that shape the result.
// Every field participates in the key: two runs share an entry only when
// they would provably produce the same output.
type ResultKeyOpts struct {
	Strategy string `json:"strategy"`
	Jobs     int    `json:"jobs"`
	Iters    int    `json:"iters"`
	Seed     *int64 `json:"seed"`
}

// Cacheable reports whether results for these parameters are worth
// storing. Unseeded local searches are nondeterministic, so caching them
// would pin an arbitrary outcome.
func (o ResultKeyOpts) Cacheable() bool {
	return o.Strategy != "" && (o.Seed != nil || o.Strategy != "local-search")
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ResultKey generates a key of the form "result:<sha256>".
func (k *DefaultKeyer) ResultKey(matrixHash string, opts ResultKeyOpts) string {
	return hashKey("result", matrixHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix so separate projects or tenants
// sharing a Redis instance get disjoint namespaces.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ResultKey generates a prefixed result key.
func (k *ScopedKeyer) ResultKey(matrixHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(matrixHash, opts)
}
