package stream

import (
	"strings"
	"time"
)

// Stats aggregates what a consumer observed on one stream.
type Stats struct {
	TotalChunks     int           `json:"total_chunks"`
	TotalGraphNodes int           `json:"total_graph_nodes"`
	TotalCacheHits  int           `json:"total_cache_hits"`
	Duration        time.Duration `json:"duration"`
	AvgChunkTime    time.Duration `json:"avg_chunk_time"`
}

// Collect concatenates chunk contents in arrival order until the final chunk
// or until the channel closes, then closes the stream. It returns the
// stream's error, if any.
func Collect(s *Stream) (string, error) {
	var b strings.Builder
	for c := range s.Chunks() {
		b.WriteString(c.Content)
		if c.IsFinal {
			break
		}
	}
	s.Close()
	if err := s.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// GetStreamStats drains s and summarizes it. Duration spans the first and
// last chunk timestamps; AvgChunkTime is Duration/TotalChunks and 0 when no
// chunk arrived. On a failed stream it returns zero Stats and the error.
func GetStreamStats(s *Stream) (Stats, error) {
	var st Stats
	var first, last time.Time
	for c := range s.Chunks() {
		if st.TotalChunks == 0 {
			first = c.Metadata.Timestamp
		}
		st.TotalChunks++
		st.TotalGraphNodes += len(c.Metadata.GraphNodesAccessed)
		st.TotalCacheHits += c.Metadata.CacheHits
		last = c.Metadata.Timestamp
		if c.IsFinal {
			break
		}
	}
	s.Close()
	if err := s.Err(); err != nil {
		return Stats{}, err
	}

	if st.TotalChunks > 0 {
		st.Duration = last.Sub(first)
		st.AvgChunkTime = st.Duration / time.Duration(st.TotalChunks)
	}
	return st, nil
}
