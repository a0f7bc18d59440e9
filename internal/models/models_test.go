package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Role{}, &Permission{}, &UserPermission{}, &InvalidationRecord{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestBeforeCreateGeneratesIDs(t *testing.T) {
	db := openTestDB(t)

	role := Role{Name: "Vendor Employee"}
	require.NoError(t, db.Create(&role).Error)
	require.NotEmpty(t, role.ID)

	user := User{Email: "employee@vendor.test", RoleID: role.ID}
	require.NoError(t, db.Create(&user).Error)
	require.NotEmpty(t, user.ID)
}

func TestRolePermissionAssociation(t *testing.T) {
	db := openTestDB(t)

	perm := Permission{Name: "VIEW_PETITION", Category: "petitions"}
	require.NoError(t, db.Create(&perm).Error)

	role := Role{Name: "Vendor Employee", Permissions: []Permission{perm}}
	require.NoError(t, db.Create(&role).Error)

	var loaded Role
	require.NoError(t, db.Preload("Permissions").First(&loaded, "id = ?", role.ID).Error)
	require.Len(t, loaded.Permissions, 1)
	require.Equal(t, "VIEW_PETITION", loaded.Permissions[0].Name)
}

func TestUserPermissionActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.True(t, UserPermission{Granted: true}.Active(now))
	require.True(t, UserPermission{Granted: true, ExpiresAt: &future}.Active(now))
	require.False(t, UserPermission{Granted: true, ExpiresAt: &past}.Active(now))
	require.False(t, UserPermission{Granted: false}.Active(now))
	require.False(t, UserPermission{Granted: false, ExpiresAt: &future}.Active(now))
}
