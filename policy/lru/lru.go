// Package lru implements the default recency-list eviction policy.
package lru

import "github.com/IvanBrykalov/vertexcache/policy"

// lru is a classic "move-to-front" Least-Recently-Used policy.
// The store keeps its clock monotonic under the table lock, so list order
// matches last-access order and the tail always carries the minimum
// timestamp. Victim selection is O(1).
type lru[K comparable] struct {
	h policy.Hooks[K]
}

type lruPolicy[K comparable] struct{}

// New returns a Policy factory that constructs LRU instances.
func New[K comparable]() policy.Policy[K] { return lruPolicy[K]{} }

// New implements policy.Policy by binding the store hooks.
func (lruPolicy[K]) New(h policy.Hooks[K]) policy.StorePolicy[K] {
	return &lru[K]{h: h}
}

// OnAdd places the new entry at MRU.
func (p *lru[K]) OnAdd(n policy.Node[K]) { p.h.PushFront(n) }

// OnGet promotes the entry to MRU.
func (p *lru[K]) OnGet(n policy.Node[K]) { p.h.MoveToFront(n) }

// OnUpdate promotes the entry to MRU (overwrites refresh the access time).
func (p *lru[K]) OnUpdate(n policy.Node[K]) { p.h.MoveToFront(n) }

// OnRemove is a no-op; the store unlinks the node itself.
func (p *lru[K]) OnRemove(_ policy.Node[K]) {}

// Victim returns the list tail.
func (p *lru[K]) Victim() policy.Node[K] { return p.h.Back() }
