// Package cache provides a concurrent, capacity-bounded store for per-vertex
// computation results, indexed both by (vertex, key) and by vertex.
//
// Design
//
//   - Keys: a composite Key{Vertex, Name} is used directly as the map key.
//     No delimiter is involved, so distinct pairs never collide regardless of
//     the characters they contain.
//
//   - Storage: one table (map[Key]*node) plus an intrusive MRU↔LRU list,
//     guarded by a single RWMutex. Reads that hit mutate the entry
//     (access count, last-access time), so Get takes the write lock.
//
//   - Vertex index: vertex id -> ordered, de-duplicated list of names ever
//     inserted for that vertex. The index is split into shards by vertex hash,
//     each with its own RWMutex. Rows may keep names whose entries were
//     evicted; every read through the index skips them.
//
//   - Capacity: Put performs check, evict and insert in one critical section
//     under the table lock, so Len() never exceeds MaxEntries, even with
//     concurrent writers. Overwrites of an existing key never evict.
//
//   - Eviction: the victim is always an entry with the smallest last-access
//     time. The default lru policy reads it off the list tail in O(1); the
//     store clamps its clock to be monotonic so list order and timestamp
//     order agree. The scan policy finds it with an O(n) walk instead.
//
//   - Consistency window: Put inserts into the table and then appends to the
//     index in a second critical section. A concurrent reader may observe the
//     entry before its index reference exists. InvalidateVertex and Clear hold
//     the index lock(s) and the table lock together and are atomic.
//     Lock order is always index shard(s) -> table.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics is the default; metrics/prom and metrics/otel export them.
//
// Basic usage
//
//	c := cache.New(cache.Options{MaxEntries: 10_000})
//	_ = c.Put("v1", "embedding", []float64{0.1, 0.2}, 1.5)
//	if v, err := c.Get("v1", "embedding"); err == nil {
//	    _ = v // a copy; safe to modify
//	}
//	_ = c.InvalidateVertex("v1")
//
// Compute on miss
//
//	c := cache.New(cache.Options{
//	    MaxEntries: 1024,
//	    Loader: func(ctx context.Context, vertexID, key string) ([]float64, float64, error) {
//	        return embed(ctx, vertexID), 0.8, nil
//	    },
//	})
//	v, err := c.GetOrCompute(ctx, "v1", "embedding")
package cache
