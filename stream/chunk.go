package stream

import "time"

// StreamChunk is one ordered slice of an answer.
type StreamChunk struct {
	ChunkID  int           `json:"chunk_id"`
	Content  string        `json:"content"`
	IsFinal  bool          `json:"is_final"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata describes the cache activity performed while producing a chunk.
type ChunkMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	// GraphNodesAccessed lists the vertex ids probed for this chunk, once each.
	GraphNodesAccessed []string `json:"graph_nodes_accessed"`
	// CacheHits counts the probes that found an entry.
	CacheHits  int     `json:"cache_hits"`
	Confidence float64 `json:"confidence"`
}

// split cuts s into slices of size runes; the last slice may be shorter.
// It returns ceil(runes/size) slices and none for an empty string.
func split(s string, size int) []string {
	if s == "" {
		return nil
	}
	var out []string
	start, n := 0, 0
	for i := range s {
		if n == size {
			out = append(out, s[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(out, s[start:])
}
