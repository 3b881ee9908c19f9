package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/IvanBrykalov/vertexcache/policy"
)

// DefaultEntrySizeEstimate is the per-entry byte figure behind
// Stats.MemoryUsageMB when Options.EntrySizeEstimate is not set.
const DefaultEntrySizeEstimate = 1024

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity: removed to make room for a new key.
	EvictCapacity EvictReason = iota
	// EvictInvalidated: removed by InvalidateVertex.
	EvictInvalidated
)

func (r EvictReason) String() string {
	switch r {
	case EvictInvalidated:
		return "invalidated"
	default:
		return "capacity"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// LoaderFunc computes the value for (vertexID, key) on a GetOrCompute miss
// and reports its computation cost.
type LoaderFunc func(ctx context.Context, vertexID, key string) (value []float64, cost float64, err error)

// Options configures the cache. Zero values are safe except MaxEntries;
// defaults are applied in New():
//   - nil Policy             => LRU
//   - nil Metrics            => NoopMetrics
//   - nil Logger             => zap.NewNop()
//   - IndexShards <= 0       => auto (rounded up to a power of two)
//   - EntrySizeEstimate <= 0 => DefaultEntrySizeEstimate
type Options struct {
	// MaxEntries is the entry count limit. Must be > 0.
	MaxEntries int

	// Policy selects eviction victims; nil => LRU by default.
	Policy policy.Policy[Key]

	// IndexShards is the number of vertex index shards.
	IndexShards int

	// EntrySizeEstimate is the assumed size of one entry in bytes, used only
	// for the memory estimate in Stats.
	EntrySizeEstimate int

	// Loader computes values for GetOrCompute.
	Loader LoaderFunc

	// OnEvict is called for every removed entry under the table lock;
	// keep callbacks lightweight and do not call back into the cache.
	OnEvict func(e Entry, reason EvictReason)
	Metrics Metrics
	Logger  *zap.Logger

	// Clock allows overriding time source (tests). Nil => time.Now().
	Clock Clock
}
