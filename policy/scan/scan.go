// Package scan implements victim selection by a full scan for the smallest
// last-access timestamp.
//
// It does not depend on list order, so it stays correct with clocks that are
// not monotonic, at the price of O(n) work per eviction. Prefer the lru
// policy for large tables.
package scan

import "github.com/IvanBrykalov/vertexcache/policy"

type scan[K comparable] struct {
	h policy.Hooks[K]
}

type scanPolicy[K comparable] struct{}

// New returns a Policy factory that constructs scanning instances.
func New[K comparable]() policy.Policy[K] { return scanPolicy[K]{} }

func (scanPolicy[K]) New(h policy.Hooks[K]) policy.StorePolicy[K] {
	return &scan[K]{h: h}
}

// OnAdd still links the node so the store's list stays complete.
func (p *scan[K]) OnAdd(n policy.Node[K]) { p.h.PushFront(n) }

func (p *scan[K]) OnGet(policy.Node[K])    {}
func (p *scan[K]) OnUpdate(policy.Node[K]) {}
func (p *scan[K]) OnRemove(policy.Node[K]) {}

// Victim walks every resident node and returns the one with the smallest
// LastAccess.
func (p *scan[K]) Victim() policy.Node[K] {
	var victim policy.Node[K]
	p.h.Range(func(n policy.Node[K]) bool {
		if victim == nil || n.LastAccess() < victim.LastAccess() {
			victim = n
		}
		return true
	})
	return victim
}
