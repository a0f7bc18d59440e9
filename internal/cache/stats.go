package cache

// Stats is a point-in-time snapshot of cache state and cumulative counters.
// Observational only; nothing in the engine makes correctness decisions
// from it.
type Stats struct {
	TotalEntries   int     `json:"total_entries"`
	ActiveEntries  int     `json:"active_entries"`
	ExpiredEntries int     `json:"expired_entries"`
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	HitRate        float64 `json:"hit_rate"`
	MemoryBytes    int     `json:"memory_bytes"`
	AvgEntryBytes  int     `json:"avg_entry_bytes"`
}

// Stats computes a snapshot under the cache lock.
func (c *PermissionCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{
		TotalEntries: len(c.entries),
		Hits:         c.hits,
		Misses:       c.misses,
	}

	for _, ent := range c.entries {
		if now.Sub(ent.set.ComputedAt) >= c.ttl {
			stats.ExpiredEntries++
		} else {
			stats.ActiveEntries++
		}
		stats.MemoryBytes += approxEntrySize(ent)
	}

	if stats.TotalEntries > 0 {
		stats.AvgEntryBytes = stats.MemoryBytes / stats.TotalEntries
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	return stats
}

// approxEntrySize estimates the in-memory footprint of an entry. It only
// needs to be stable enough for observability dashboards.
func approxEntrySize(ent *entry) int {
	const entryOverhead = 96
	const permOverhead = 64

	size := entryOverhead +
		len(ent.set.UserID) + len(ent.set.CompanyID) +
		len(ent.set.RoleID) + len(ent.set.RoleName)

	for name, perm := range ent.set.Permissions {
		size += permOverhead + len(name) +
			len(perm.Category) + len(perm.Description) + len(perm.SourceRoleName)
	}
	return size
}
