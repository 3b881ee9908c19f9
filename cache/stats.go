package cache

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	TotalEntries int     `json:"total_entries"`
	TotalHits    int64   `json:"total_hits"`
	TotalMisses  int64   `json:"total_misses"`
	HitRate      float64 `json:"hit_rate"`
	// AvgAccessCount is the mean access count of live entries (0 when empty).
	AvgAccessCount float64 `json:"avg_access_count"`
	// MemoryUsageMB is an estimate: entries × Options.EntrySizeEstimate.
	// It does not measure actual heap usage.
	MemoryUsageMB float64 `json:"memory_usage_mb"`

	Evictions            int64   `json:"evictions"`
	TotalComputationCost float64 `json:"total_computation_cost"`
}

// Stats returns a snapshot taken under the table lock, so counters and
// entries always belong to the same state (see Clear).
func (c *VertexCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var accesses int
	var cost float64
	for _, n := range c.table {
		accesses += n.accessCount
		cost += n.cost
	}

	st := Stats{
		TotalEntries:         len(c.table),
		TotalHits:            hits,
		TotalMisses:          misses,
		HitRate:              hitRate(hits, misses),
		MemoryUsageMB:        float64(len(c.table)*c.opt.EntrySizeEstimate) / (1 << 20),
		Evictions:            c.evicts.Load(),
		TotalComputationCost: cost,
	}
	if len(c.table) > 0 {
		st.AvgAccessCount = float64(accesses) / float64(len(c.table))
	}
	return st
}

// hitRate is hits/(hits+misses), defined as 0 when there were no requests.
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
