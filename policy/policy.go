// Package policy defines how the cache picks an eviction victim.
//
// The store owns the key->entry map; a policy only sees entries through
// Node and manipulates the store's intrusive recency list through Hooks.
// Whatever the bookkeeping, every policy must return as victim an entry whose
// last-access time is the minimum of all resident entries (ties arbitrary).
package policy

// Node is the minimal contract a resident entry satisfies for a policy.
type Node[K comparable] interface {
	Key() K
	// LastAccess is the entry's last-access time in UnixNano.
	LastAccess() int64
}

// Hooks expose the store's list and table to a policy.
// All hook calls happen under the store's table lock.
type Hooks[K comparable] interface {
	// MoveToFront promotes the node to MRU.
	MoveToFront(Node[K])
	// PushFront inserts the node at MRU (used on admission).
	PushFront(Node[K])
	// Remove detaches the node from the list (map bookkeeping is done by the store).
	Remove(Node[K])
	// Back returns the current LRU node (or nil if empty).
	Back() Node[K]
	// Len returns the number of resident nodes.
	Len() int
	// Range calls fn for every resident node until fn returns false.
	Range(fn func(Node[K]) bool)
}

// StorePolicy is a policy instance bound to one store's hooks.
// All methods are invoked under the table lock.
type StorePolicy[K comparable] interface {
	OnAdd(Node[K])
	OnGet(Node[K])
	OnUpdate(Node[K])
	OnRemove(Node[K])
	// Victim returns the entry to evict, or nil when the store is empty.
	Victim() Node[K]
}

// Policy is a factory that binds a policy to a store's hooks.
type Policy[K comparable] interface {
	New(Hooks[K]) StorePolicy[K]
}
