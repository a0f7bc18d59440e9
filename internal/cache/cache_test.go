package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/casedesk/casedesk/internal/permissions"
)

func testSet(userID, companyID, roleID string, names ...string) *permissions.EffectiveSet {
	set := &permissions.EffectiveSet{
		UserID:      userID,
		CompanyID:   companyID,
		RoleID:      roleID,
		RoleName:    "Vendor Employee",
		Permissions: make(map[string]permissions.EffectivePermission, len(names)),
		ComputedAt:  time.Now(),
	}
	for _, name := range names {
		set.Permissions[name] = permissions.EffectivePermission{
			Name:           name,
			Source:         permissions.SourceRole,
			SourceRoleName: set.RoleName,
		}
	}
	return set
}

func TestGetMissOnEmptyCache(t *testing.T) {
	c := New()

	_, ok := c.Get("u1", "c1")
	require.False(t, ok)

	stats := c.Stats()
	require.Equal(t, uint64(0), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
}

func TestPutThenGet(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))

	set, ok := c.Get("u1", "c1")
	require.True(t, ok)
	_, granted := set.Has("VIEW_PETITION")
	require.True(t, granted)

	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, 1, stats.ActiveEntries)
}

func TestGetReturnsCopy(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))

	set, ok := c.Get("u1", "c1")
	require.True(t, ok)
	delete(set.Permissions, "VIEW_PETITION")

	again, ok := c.Get("u1", "c1")
	require.True(t, ok)
	_, granted := again.Has("VIEW_PETITION")
	require.True(t, granted)
}

func TestExpiryIsLazy(t *testing.T) {
	current := time.Now()
	clock := func() time.Time { return current }

	c := New(WithTTL(time.Minute), WithClock(clock))

	set := testSet("u1", "c1", "r1", "VIEW_PETITION")
	set.ComputedAt = current
	c.Put("u1", "c1", set)

	current = current.Add(59 * time.Second)
	_, ok := c.Get("u1", "c1")
	require.True(t, ok)

	current = current.Add(2 * time.Second)
	_, ok = c.Get("u1", "c1")
	require.False(t, ok)

	// the expired entry was dropped on read
	require.Equal(t, 0, c.Stats().TotalEntries)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "FILE_PETITION"))

	set, ok := c.Get("u1", "c1")
	require.True(t, ok)
	_, hasOld := set.Has("VIEW_PETITION")
	require.False(t, hasOld)
	_, hasNew := set.Has("FILE_PETITION")
	require.True(t, hasNew)
	require.Equal(t, 1, c.Stats().TotalEntries)
}

func TestInvalidateByUserClearsAllCompanies(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))
	c.Put("u1", "c2", testSet("u1", "c2", "r1", "VIEW_PETITION"))
	c.Put("u2", "c1", testSet("u2", "c1", "r1", "VIEW_PETITION"))

	result := c.Invalidate(Criteria{UserID: "u1"})
	require.Equal(t, 2, result.Count)
	require.ElementsMatch(t, []string{Key("u1", "c1"), Key("u1", "c2")}, result.Keys)

	_, ok := c.Get("u1", "c1")
	require.False(t, ok)
	_, ok = c.Get("u2", "c1")
	require.True(t, ok)
}

func TestInvalidateByRoleScansEntries(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))
	c.Put("u2", "c1", testSet("u2", "c1", "r2", "VIEW_PETITION"))

	result := c.Invalidate(Criteria{RoleID: "r1"})
	require.Equal(t, 1, result.Count)

	_, ok := c.Get("u1", "c1")
	require.False(t, ok)
	_, ok = c.Get("u2", "c1")
	require.True(t, ok)
}

func TestInvalidateByCompany(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))
	c.Put("u2", "c2", testSet("u2", "c2", "r1", "VIEW_PETITION"))

	result := c.Invalidate(Criteria{CompanyID: "c2"})
	require.Equal(t, 1, result.Count)

	_, ok := c.Get("u2", "c2")
	require.False(t, ok)
}

func TestInvalidateAllReturnsWildcard(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))
	c.Put("u2", "c2", testSet("u2", "c2", "r2", "VIEW_PETITION"))

	result := c.Invalidate(Criteria{All: true})
	require.Equal(t, 2, result.Count)
	require.Equal(t, []string{WildcardKey}, result.Keys)
	require.Equal(t, 0, c.Stats().ActiveEntries)
}

func TestInvalidateWithEmptyCriteriaIsNoop(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))

	result := c.Invalidate(Criteria{})
	require.Equal(t, 0, result.Count)
	require.Equal(t, 1, c.Stats().TotalEntries)
}

func TestPurgeExpired(t *testing.T) {
	current := time.Now()
	clock := func() time.Time { return current }

	c := New(WithTTL(time.Minute), WithClock(clock))

	stale := testSet("u1", "c1", "r1", "VIEW_PETITION")
	stale.ComputedAt = current.Add(-2 * time.Minute)
	c.Put("u1", "c1", stale)

	fresh := testSet("u2", "c1", "r1", "VIEW_PETITION")
	fresh.ComputedAt = current
	c.Put("u2", "c1", fresh)

	require.Equal(t, 1, c.PurgeExpired())
	require.Equal(t, 1, c.Stats().TotalEntries)
}

func TestStatsTracksSizes(t *testing.T) {
	c := New()
	c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION", "FILE_PETITION"))

	stats := c.Stats()
	require.Equal(t, 1, stats.TotalEntries)
	require.Positive(t, stats.MemoryBytes)
	require.Equal(t, stats.MemoryBytes, stats.AvgEntryBytes)
}

func TestConcurrentGetAndInvalidate(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Put("u1", "c1", testSet("u1", "c1", "r1", "VIEW_PETITION"))
				if set, ok := c.Get("u1", "c1"); ok {
					// an entry is always whole: never present without its permissions
					_, granted := set.Has("VIEW_PETITION")
					if !granted {
						t.Error("observed torn cache entry")
						return
					}
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Invalidate(Criteria{UserID: "u1"})
			}
		}()
	}
	wg.Wait()
}
