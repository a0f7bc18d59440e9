package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/casedesk/casedesk/internal/permissions"
	"github.com/casedesk/casedesk/pkg/metrics"
)

// DefaultTTL bounds how long a resolved permission set is served before
// recomputation.
const DefaultTTL = 5 * time.Minute

// WildcardKey marks a full-cache clear in invalidation results.
const WildcardKey = "*"

type entry struct {
	set      *permissions.EffectiveSet
	hitCount int64
}

// PermissionCache is an in-process, TTL-bounded store of resolved effective
// permission sets keyed by (user, company). All access goes through a single
// mutex so readers never observe a partially written entry. Races between a
// put and an invalidation resolve to whichever completed last.
type PermissionCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time

	hits   uint64
	misses uint64
}

// Option customises the cache.
type Option func(*PermissionCache)

// WithTTL overrides the default entry lifetime. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *PermissionCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the clock used for expiry decisions, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(c *PermissionCache) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs an empty PermissionCache.
func New(opts ...Option) *PermissionCache {
	c := &PermissionCache{
		entries: make(map[string]*entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the composite cache key for a (user, company) pair.
func Key(userID, companyID string) string {
	return userID + ":" + companyID
}

// TTL returns the configured entry lifetime.
func (c *PermissionCache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of the cached set for the key, when present and within
// TTL. Expired entries are dropped on read; expiry is never evaluated by a
// background thread.
func (c *PermissionCache) Get(userID, companyID string) (*permissions.EffectiveSet, bool) {
	key := Key(userID, companyID)

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.misses++
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	if c.now().Sub(ent.set.ComputedAt) >= c.ttl {
		delete(c.entries, key)
		metrics.CacheEntries.Set(float64(len(c.entries)))
		c.misses++
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	ent.hitCount++
	c.hits++
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return ent.set.Clone(), true
}

// Put stores the resolved set under the supplied request pair, overwriting
// any existing entry. companyID is the company context the caller asked for,
// which may be empty when the user's own company was implied; the concrete
// ids inside the set are what invalidation matches against.
func (c *PermissionCache) Put(userID, companyID string, set *permissions.EffectiveSet) {
	if set == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[Key(userID, companyID)] = &entry{set: set.Clone()}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// Criteria selects cache entries for invalidation. Fields combine as a
// union: an entry is cleared when it matches any populated field. All clears
// everything regardless of the other fields.
type Criteria struct {
	UserID    string
	RoleID    string
	CompanyID string
	All       bool
}

func (cr Criteria) empty() bool {
	return !cr.All &&
		strings.TrimSpace(cr.UserID) == "" &&
		strings.TrimSpace(cr.RoleID) == "" &&
		strings.TrimSpace(cr.CompanyID) == ""
}

func (cr Criteria) label() string {
	switch {
	case cr.All:
		return "all"
	case cr.RoleID != "":
		return "role"
	case cr.CompanyID != "":
		return "company"
	default:
		return "user"
	}
}

func (cr Criteria) matches(set *permissions.EffectiveSet) bool {
	if cr.UserID != "" && set.UserID == cr.UserID {
		return true
	}
	if cr.RoleID != "" && set.RoleID == cr.RoleID {
		return true
	}
	if cr.CompanyID != "" && set.CompanyID == cr.CompanyID {
		return true
	}
	return false
}

// InvalidationResult reports what an invalidation removed.
type InvalidationResult struct {
	Count int
	Keys  []string
}

// Invalidate clears entries matching the criteria and returns the removed
// keys. Role and company matching scan all entries using the role/company
// recorded in each cached set; no reverse index is maintained.
func (c *PermissionCache) Invalidate(criteria Criteria) InvalidationResult {
	if criteria.empty() {
		return InvalidationResult{Keys: []string{}}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	metrics.CacheInvalidations.WithLabelValues(criteria.label()).Inc()

	if criteria.All {
		count := len(c.entries)
		c.entries = make(map[string]*entry)
		metrics.CacheEntries.Set(0)
		return InvalidationResult{Count: count, Keys: []string{WildcardKey}}
	}

	keys := make([]string, 0)
	for key, ent := range c.entries {
		if criteria.matches(ent.set) {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		delete(c.entries, key)
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))

	return InvalidationResult{Count: len(keys), Keys: keys}
}

// Clear removes every entry without touching the hit/miss counters.
func (c *PermissionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	metrics.CacheEntries.Set(0)
}

// PurgeExpired drops entries past TTL and returns how many were removed.
// Used by the maintenance sweeper to reclaim memory; logical expiry is still
// enforced lazily at read time.
func (c *PermissionCache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, ent := range c.entries {
		if now.Sub(ent.set.ComputedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
	return removed
}
