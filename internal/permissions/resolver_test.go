package permissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/casedesk/casedesk/internal/models"
	"github.com/casedesk/casedesk/internal/store"
	apperrors "github.com/casedesk/casedesk/pkg/errors"
)

const (
	companyA = "aaaaaaaa-0000-0000-0000-000000000001"
	companyB = "aaaaaaaa-0000-0000-0000-000000000002"
)

type resolverFixture struct {
	db       *gorm.DB
	resolver *Resolver
}

func setupResolverTest(t *testing.T) *resolverFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserPermission{},
	))

	s, err := store.New(db)
	require.NoError(t, err)
	r, err := NewResolver(s)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return &resolverFixture{db: db, resolver: r}
}

func (f *resolverFixture) createPermission(t *testing.T, name string) models.Permission {
	t.Helper()
	perm := models.Permission{Name: name, Category: "petitions"}
	require.NoError(t, f.db.Create(&perm).Error)
	return perm
}

func (f *resolverFixture) createUser(t *testing.T, companyID string, role models.Role) models.User {
	t.Helper()
	user := models.User{Email: uniqueEmail(t), RoleID: role.ID, IsActive: true}
	if companyID != "" {
		user.CompanyID = &companyID
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *resolverFixture) grant(t *testing.T, user models.User, perm models.Permission, granted bool, expiresAt *time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.UserPermission{
		UserID:       user.ID,
		PermissionID: perm.ID,
		Granted:      granted,
		GrantedAt:    time.Now(),
		ExpiresAt:    expiresAt,
	}).Error)
}

func uniqueEmail(t *testing.T) string {
	return t.Name() + "-" + time.Now().Format("150405.000000000") + "@casedesk.test"
}

func TestResolveMergesRoleAndDirectGrants(t *testing.T) {
	f := setupResolverTest(t)

	view := f.createPermission(t, "VIEW_PETITION")
	file := f.createPermission(t, "FILE_PETITION")

	role := models.Role{Name: "Vendor Employee", Permissions: []models.Permission{view}}
	require.NoError(t, f.db.Create(&role).Error)

	user := f.createUser(t, companyA, role)
	f.grant(t, user, file, true, nil)

	set, err := f.resolver.Resolve(context.Background(), user.ID, "")
	require.NoError(t, err)
	require.Len(t, set.Permissions, 2)

	viewPerm, ok := set.Has("VIEW_PETITION")
	require.True(t, ok)
	require.Equal(t, SourceRole, viewPerm.Source)
	require.Equal(t, "Vendor Employee", viewPerm.SourceRoleName)

	filePerm, ok := set.Has("FILE_PETITION")
	require.True(t, ok)
	require.Equal(t, SourceDirect, filePerm.Source)
	require.Empty(t, filePerm.SourceRoleName)

	require.Equal(t, companyA, set.CompanyID)
	require.Equal(t, role.ID, set.RoleID)
}

func TestResolveDirectWinsAttributionOnCollision(t *testing.T) {
	f := setupResolverTest(t)

	view := f.createPermission(t, "VIEW_PETITION")

	role := models.Role{Name: "Vendor Employee", Permissions: []models.Permission{view}}
	require.NoError(t, f.db.Create(&role).Error)

	user := f.createUser(t, companyA, role)
	f.grant(t, user, view, true, nil)

	set, err := f.resolver.Resolve(context.Background(), user.ID, "")
	require.NoError(t, err)
	// counted once, attributed DIRECT
	require.Len(t, set.Permissions, 1)
	perm, ok := set.Has("VIEW_PETITION")
	require.True(t, ok)
	require.Equal(t, SourceDirect, perm.Source)
}

func TestResolveExcludesExpiredGrants(t *testing.T) {
	f := setupResolverTest(t)

	file := f.createPermission(t, "FILE_PETITION")
	role := models.Role{Name: "Vendor Employee"}
	require.NoError(t, f.db.Create(&role).Error)

	user := f.createUser(t, companyA, role)
	past := time.Now().Add(-time.Hour)
	f.grant(t, user, file, true, &past)

	set, err := f.resolver.Resolve(context.Background(), user.ID, "")
	require.NoError(t, err)
	_, ok := set.Has("FILE_PETITION")
	require.False(t, ok)
}

func TestResolveExcludesRevokedGrants(t *testing.T) {
	f := setupResolverTest(t)

	file := f.createPermission(t, "FILE_PETITION")
	role := models.Role{Name: "Vendor Employee"}
	require.NoError(t, f.db.Create(&role).Error)

	user := f.createUser(t, companyA, role)
	f.grant(t, user, file, false, nil)

	set, err := f.resolver.Resolve(context.Background(), user.ID, "")
	require.NoError(t, err)
	require.Empty(t, set.Permissions)
}

func TestResolveFutureExpiryStillActive(t *testing.T) {
	f := setupResolverTest(t)

	file := f.createPermission(t, "FILE_PETITION")
	role := models.Role{Name: "Vendor Employee"}
	require.NoError(t, f.db.Create(&role).Error)

	user := f.createUser(t, companyA, role)
	future := time.Now().Add(time.Hour)
	f.grant(t, user, file, true, &future)

	set, err := f.resolver.Resolve(context.Background(), user.ID, "")
	require.NoError(t, err)
	_, ok := set.Has("FILE_PETITION")
	require.True(t, ok)
}

func TestResolveUserNotFound(t *testing.T) {
	f := setupResolverTest(t)

	_, err := f.resolver.Resolve(context.Background(), "00000000-0000-0000-0000-000000000000", "")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestResolveTenantMismatch(t *testing.T) {
	f := setupResolverTest(t)

	role := models.Role{Name: "Vendor Employee"}
	require.NoError(t, f.db.Create(&role).Error)
	user := f.createUser(t, companyA, role)

	_, err := f.resolver.Resolve(context.Background(), user.ID, companyB)
	require.ErrorIs(t, err, apperrors.ErrTenantMismatch)
}

func TestResolveSuperTenantCrossesCompanies(t *testing.T) {
	f := setupResolverTest(t)

	view := f.createPermission(t, "VIEW_PETITION")
	role := models.Role{Name: "Platform Admin", IsSuperTenant: true, Permissions: []models.Permission{view}}
	require.NoError(t, f.db.Create(&role).Error)
	user := f.createUser(t, companyA, role)

	set, err := f.resolver.Resolve(context.Background(), user.ID, companyB)
	require.NoError(t, err)
	require.Equal(t, companyB, set.CompanyID)
	_, ok := set.Has("VIEW_PETITION")
	require.True(t, ok)
}

func TestResolveUnassignedUserDefaultsToEmptyCompany(t *testing.T) {
	f := setupResolverTest(t)

	role := models.Role{Name: "Pending"}
	require.NoError(t, f.db.Create(&role).Error)
	user := f.createUser(t, "", role)

	set, err := f.resolver.Resolve(context.Background(), user.ID, "")
	require.NoError(t, err)
	require.Empty(t, set.CompanyID)
}
