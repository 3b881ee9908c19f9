package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/IvanBrykalov/vertexcache/internal/util"
	"github.com/IvanBrykalov/vertexcache/policy"
	"github.com/IvanBrykalov/vertexcache/policy/lru"
)

// VertexCache is the in-memory Store implementation.
// Create it with New and share the pointer; the zero value is not usable.
type VertexCache struct {
	// ---- guarded by mu ----
	mu       sync.RWMutex
	table    map[Key]*node
	head     *node // MRU
	tail     *node // LRU
	lastTick int64 // monotonic clamp for access timestamps

	pol   policy.StorePolicy[Key]
	index []*indexShard

	opt Options
	log *zap.Logger

	// coalesces concurrent GetOrCompute loads per key.
	sf singleflight.Group

	// ---- counters (separate cache lines to avoid false sharing) ----
	// They are only modified while mu is held, which is what keeps Stats and
	// Clear consistent with the table.
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicInt64
}

// New constructs a VertexCache with the provided Options.
// It panics if MaxEntries <= 0.
func New(opt Options) *VertexCache {
	if opt.MaxEntries <= 0 {
		panic("cache: MaxEntries must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[Key]()
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.EntrySizeEstimate <= 0 {
		opt.EntrySizeEstimate = DefaultEntrySizeEstimate
	}

	shards := util.ShardCount(opt.IndexShards)
	c := &VertexCache{
		table: make(map[Key]*node, min(opt.MaxEntries, 1<<16)),
		index: make([]*indexShard, shards),
		opt:   opt,
		log:   opt.Logger.With(zap.String("component", "vertexcache")),
	}
	for i := range c.index {
		c.index[i] = newIndexShard()
	}
	c.pol = opt.Policy.New(storeHooks{c: c})

	c.log.Debug("vertex cache created",
		zap.Int("max_entries", opt.MaxEntries),
		zap.Int("index_shards", shards),
	)
	return c
}

// Get returns a copy of the value for (vertexID, key) or ErrCacheMiss.
func (c *VertexCache) Get(vertexID, key string) ([]float64, error) {
	k := Key{Vertex: vertexID, Name: key}

	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.table[k]
	if !ok {
		c.misses.Add(1)
		c.opt.Metrics.Miss()
		return nil, ErrCacheMiss
	}

	n.accessCount++
	n.lastAccess = c.tickLocked()
	c.pol.OnGet(n)
	c.hits.Add(1)
	c.opt.Metrics.Hit()
	return slices.Clone(n.value), nil
}

// Put inserts or overwrites (vertexID, key) and records the name in the
// vertex index. The stored value is a copy of value.
func (c *VertexCache) Put(vertexID, key string, value []float64, computationCost float64) error {
	k := Key{Vertex: vertexID, Name: key}
	v := slices.Clone(value)

	c.mu.Lock()
	now := c.tickLocked()
	if n, ok := c.table[k]; ok {
		// Overwrite: replace wholesale, no eviction needed.
		n.value = v
		n.accessCount = 1
		n.lastAccess = now
		n.cost = computationCost
		c.pol.OnUpdate(n)
	} else {
		if len(c.table) >= c.opt.MaxEntries {
			c.evictOneLocked()
		}
		n := &node{key: k, value: v, lastAccess: now, accessCount: 1, cost: computationCost}
		c.table[k] = n
		c.pol.OnAdd(n)
	}
	c.opt.Metrics.Size(len(c.table))
	c.mu.Unlock()

	// Second critical section: see the consistency window in doc.go.
	c.indexFor(vertexID).add(vertexID, key)
	return nil
}

// VertexEntries returns live entries of vertexID in index order,
// skipping index references whose entries are gone.
func (c *VertexCache) VertexEntries(vertexID string) []Entry {
	sh := c.indexFor(vertexID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	row := sh.rows[vertexID]
	if row == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(row.names))
	for _, name := range row.names {
		if n, ok := c.table[Key{Vertex: vertexID, Name: name}]; ok {
			out = append(out, n.entry())
		}
	}
	return out
}

// InvalidateVertex removes vertexID's index row and every entry it
// referenced, atomically. Unknown vertices are a no-op.
func (c *VertexCache) InvalidateVertex(vertexID string) error {
	sh := c.indexFor(vertexID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	row := sh.rows[vertexID]
	if row == nil {
		return nil
	}
	delete(sh.rows, vertexID)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, name := range row.names {
		n, ok := c.table[Key{Vertex: vertexID, Name: name}]
		if !ok {
			continue
		}
		c.removeLocked(n, EvictInvalidated)
		removed++
	}
	c.opt.Metrics.Size(len(c.table))

	c.log.Debug("vertex invalidated",
		zap.String("vertex_id", vertexID),
		zap.Int("removed", removed),
		zap.Int("index_refs", len(row.names)),
	)
	return nil
}

// Prefetch returns the number of entries currently cached for vertexIDs.
// It is a warm check only: nothing is computed or loaded.
func (c *VertexCache) Prefetch(vertexIDs []string) (int, error) {
	total := 0
	for _, id := range vertexIDs {
		total += len(c.VertexEntries(id))
	}
	return total, nil
}

// GetOrCompute returns the value for (vertexID, key); on miss it computes it
// via Options.Loader and stores the result. Concurrent computations for the
// same key are coalesced. Cancelling ctx unblocks only this caller.
func (c *VertexCache) GetOrCompute(ctx context.Context, vertexID, key string) ([]float64, error) {
	if v, err := c.Get(vertexID, key); err == nil {
		return v, nil
	}
	if c.opt.Loader == nil {
		return nil, ErrNoLoader
	}

	k := Key{Vertex: vertexID, Name: key}
	// The flight is shared, so the leader's cancellation must not fail followers.
	lctx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(k.String(), func() (any, error) {
		// double-check after flight join
		if v, ok := c.peek(k); ok {
			return v, nil
		}
		v, cost, err := c.opt.Loader(lctx, vertexID, key)
		if err != nil {
			return nil, err
		}
		if err := c.Put(vertexID, key, v, cost); err != nil {
			return nil, err
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("cache: compute %s: %w", k, res.Err)
		}
		return slices.Clone(res.Val.([]float64)), nil
	}
}

// Len returns the number of resident entries.
func (c *VertexCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// Clear empties the table and the index and resets all counters.
// Every index shard and the table are locked together, so no observer sees
// a partially cleared store.
func (c *VertexCache) Clear() error {
	for _, sh := range c.index {
		sh.mu.Lock()
	}
	c.mu.Lock()

	c.table = make(map[Key]*node, len(c.table))
	c.head, c.tail = nil, nil
	c.pol = c.opt.Policy.New(storeHooks{c: c})
	for _, sh := range c.index {
		sh.rows = make(map[string]*indexRow)
	}
	c.hits.Store(0)
	c.misses.Store(0)
	c.evicts.Store(0)
	c.opt.Metrics.Size(0)

	c.mu.Unlock()
	for i := len(c.index) - 1; i >= 0; i-- {
		c.index[i].mu.Unlock()
	}
	return nil
}

// -------------------- internals (mu held) --------------------

// peek reads a value without touching counters or recency.
func (c *VertexCache) peek(k Key) ([]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.table[k]
	if !ok {
		return nil, false
	}
	return slices.Clone(n.value), true
}

func (c *VertexCache) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// tickLocked returns the current time, never earlier than the previous
// tick. The lru policy relies on this to keep list order == timestamp order.
func (c *VertexCache) tickLocked() int64 {
	now := c.now()
	if now < c.lastTick {
		now = c.lastTick
	}
	c.lastTick = now
	return now
}

// evictOneLocked removes the policy's victim, if any.
func (c *VertexCache) evictOneLocked() {
	v := c.pol.Victim()
	if v == nil {
		return
	}
	n := v.(*node)
	c.removeLocked(n, EvictCapacity)
	c.evicts.Add(1)
	if ce := c.log.Check(zap.DebugLevel, "evicted entry"); ce != nil {
		ce.Write(
			zap.Stringer("key", n.key),
			zap.Int64("last_access", n.lastAccess),
			zap.Int("access_count", n.accessCount),
		)
	}
}

// removeLocked unlinks n from the table and the list and notifies observers.
func (c *VertexCache) removeLocked(n *node, reason EvictReason) {
	c.pol.OnRemove(n)
	c.unlink(n)
	delete(c.table, n.key)
	c.opt.Metrics.Evict(reason)
	if cb := c.opt.OnEvict; cb != nil {
		cb(n.entry(), reason)
	}
}

// insertFront inserts n at MRU in O(1).
func (c *VertexCache) insertFront(n *node) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

// moveToFront promotes n to MRU in O(1).
func (c *VertexCache) moveToFront(n *node) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.insertFront(n)
}

// unlink detaches n from the list in O(1).
func (c *VertexCache) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if c.head == n {
		c.head = n.next
	}
	if c.tail == n {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// -------------------- policy hooks --------------------

// storeHooks adapts the store's list operations to policy.Hooks.
type storeHooks struct{ c *VertexCache }

func (h storeHooks) MoveToFront(x policy.Node[Key]) { h.c.moveToFront(x.(*node)) }
func (h storeHooks) PushFront(x policy.Node[Key])   { h.c.insertFront(x.(*node)) }
func (h storeHooks) Remove(x policy.Node[Key])      { h.c.unlink(x.(*node)) }
func (h storeHooks) Len() int                       { return len(h.c.table) }

func (h storeHooks) Back() policy.Node[Key] {
	if h.c.tail == nil {
		return nil // avoid a typed-nil interface
	}
	return h.c.tail
}

func (h storeHooks) Range(fn func(policy.Node[Key]) bool) {
	for n := h.c.head; n != nil; n = n.next {
		if !fn(n) {
			return
		}
	}
}
