package cache

import "context"

// Store is the vertex cache contract. All methods are safe for concurrent use.
//
// Mutating operations return an error so that a backing store with I/O can be
// introduced without changing callers; the in-memory VertexCache never fails.
type Store interface {
	// Get returns a copy of the value stored for (vertexID, key).
	// On hit the entry's access count and last-access time are refreshed.
	// On miss it returns ErrCacheMiss.
	Get(vertexID, key string) ([]float64, error)

	// Put inserts or overwrites (vertexID, key). When the store is full and
	// the key is new, exactly one least-recently-accessed entry is evicted first.
	Put(vertexID, key string, value []float64, computationCost float64) error

	// VertexEntries returns the live entries of a vertex in index order.
	VertexEntries(vertexID string) []Entry

	// InvalidateVertex removes the vertex's index row and all its entries.
	InvalidateVertex(vertexID string) error

	// Prefetch reports how many entries are currently cached for vertexIDs.
	// It does not compute missing values.
	Prefetch(vertexIDs []string) (int, error)

	// GetOrCompute returns the cached value or computes it with the
	// configured Loader, coalescing concurrent computations of the same key.
	GetOrCompute(ctx context.Context, vertexID, key string) ([]float64, error)

	// Stats returns a consistent snapshot of counters and table state.
	Stats() Stats

	// Clear empties the store and resets all counters.
	Clear() error

	// Len returns the number of resident entries.
	Len() int
}

var _ Store = (*VertexCache)(nil)
