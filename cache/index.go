package cache

import (
	"sync"

	"github.com/IvanBrykalov/vertexcache/internal/util"
)

// indexShard holds the vertex index rows of the vertices hashing to it.
type indexShard struct {
	mu   sync.RWMutex
	rows map[string]*indexRow
}

// indexRow lists the names ever inserted for one vertex, in first-insertion
// order and without duplicates. A row is bounded by the number of distinct
// names put for the vertex since its last invalidation, not by the number of
// puts. Names may refer to entries that have since been evicted.
type indexRow struct {
	names []string
	seen  map[string]struct{}
}

func newIndexShard() *indexShard {
	return &indexShard{rows: make(map[string]*indexRow)}
}

// add records name under vertexID unless it is already present.
func (s *indexShard) add(vertexID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rows[vertexID]
	if row == nil {
		row = &indexRow{seen: make(map[string]struct{}, 1)}
		s.rows[vertexID] = row
	}
	if _, dup := row.seen[name]; dup {
		return
	}
	row.seen[name] = struct{}{}
	row.names = append(row.names, name)
}

// refs returns the number of names recorded for vertexID.
func (s *indexShard) refs(vertexID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row := s.rows[vertexID]; row != nil {
		return len(row.names)
	}
	return 0
}

// indexFor returns the shard owning vertexID.
func (c *VertexCache) indexFor(vertexID string) *indexShard {
	return c.index[util.ShardFor(vertexID, len(c.index))]
}
