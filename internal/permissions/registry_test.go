package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/casedesk/casedesk/internal/models"
)

func TestRegisterRejectsEmptyAndDuplicateNames(t *testing.T) {
	require.ErrorIs(t, Register(Definition{Name: "  "}), errEmptyName)

	require.NoError(t, Register(Definition{Name: "TEST_ONLY_PERMISSION", Category: "test"}))
	err := Register(Definition{Name: "TEST_ONLY_PERMISSION"})
	require.ErrorIs(t, err, errDuplicateName)
}

func TestBuiltinCatalogRegistered(t *testing.T) {
	def, ok := Get("VIEW_PETITION")
	require.True(t, ok)
	require.Equal(t, "petitions", def.Category)

	_, ok = Get("NOT_A_PERMISSION")
	require.False(t, ok)

	require.NotEmpty(t, ByCategory("administration"))
}

func TestAllReturnsSortedDefinitions(t *testing.T) {
	defs := All()
	require.NotEmpty(t, defs)
	for i := 1; i < len(defs); i++ {
		require.Less(t, defs[i-1].Name, defs[i].Name)
	}
}

func TestSyncUpsertsDefinitions(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Permission{}))

	require.NoError(t, Sync(context.Background(), db))

	var count int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&count).Error)
	require.GreaterOrEqual(t, count, int64(13))

	// idempotent
	require.NoError(t, Sync(context.Background(), db))

	var after int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&after).Error)
	require.Equal(t, count, after)

	var stored models.Permission
	require.NoError(t, db.First(&stored, "name = ?", "VIEW_PETITION").Error)
	require.Equal(t, "petitions", stored.Category)
}
