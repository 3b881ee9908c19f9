package cache

import (
	"slices"
	"strconv"
	"time"
)

// Key addresses one cached value: a vertex and a sub-key within it.
// It is comparable and used directly as the table's map key.
type Key struct {
	Vertex string
	Name   string
}

// String renders the key with a length prefix on the vertex part, so the
// text form is unambiguous too ("3:a:b/c" vs "1:a/b:c").
func (k Key) String() string {
	return strconv.Itoa(len(k.Vertex)) + ":" + k.Vertex + "/" + k.Name
}

// Entry is a snapshot of one cached value and its bookkeeping.
type Entry struct {
	VertexID        string    `json:"vertex_id"`
	Key             string    `json:"key"`
	Value           []float64 `json:"value"`
	LastAccess      time.Time `json:"last_access"`
	AccessCount     int       `json:"access_count"`
	ComputationCost float64   `json:"computation_cost"`
}

// node is an intrusive doubly linked list element owned by the store.
// All fields are guarded by the table lock.
type node struct {
	key   Key
	value []float64

	// Intrusive list links: head is MRU, tail is LRU.
	prev *node
	next *node

	lastAccess  int64 // UnixNano
	accessCount int
	cost        float64
}

// Key implements policy.Node.
func (n *node) Key() Key { return n.key }

// LastAccess implements policy.Node.
func (n *node) LastAccess() int64 { return n.lastAccess }

// entry returns a detached copy safe to hand to callers.
func (n *node) entry() Entry {
	return Entry{
		VertexID:        n.key.Vertex,
		Key:             n.key.Name,
		Value:           slices.Clone(n.value),
		LastAccess:      time.Unix(0, n.lastAccess),
		AccessCount:     n.accessCount,
		ComputationCost: n.cost,
	}
}
