package permissions

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/casedesk/casedesk/internal/store"
	apperrors "github.com/casedesk/casedesk/pkg/errors"
	"github.com/casedesk/casedesk/pkg/logger"
	"github.com/casedesk/casedesk/pkg/metrics"
)

// Resolver computes effective permission sets by merging role permissions
// with active direct grants. It is a pure read over the store; callers own
// caching.
type Resolver struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewResolver constructs a Resolver backed by the provided store.
func NewResolver(s store.Store) (*Resolver, error) {
	if s == nil {
		return nil, errors.New("resolver: store is required")
	}
	return &Resolver{
		store: s,
		log:   logger.WithModule("resolver"),
		now:   time.Now,
	}, nil
}

// WithClock overrides the resolver's clock, primarily for expiry tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	if now != nil {
		r.now = now
	}
	return r
}

// Resolve computes the effective permission set for the user evaluated
// against companyID. An empty companyID means the user's own company. A
// mismatching companyID fails with TenantMismatch unless the user's role is
// a super-tenant role.
func (r *Resolver) Resolve(ctx context.Context, userID, companyID string) (*EffectiveSet, error) {
	ctx = ensureContext(ctx)
	started := r.now()

	user, err := r.store.GetUserWithRole(ctx, userID)
	if err != nil {
		return nil, err
	}

	userCompany := ""
	if user.CompanyID != nil {
		userCompany = *user.CompanyID
	}

	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		companyID = userCompany
	} else if companyID != userCompany {
		if user.Role == nil || !user.Role.IsSuperTenant {
			return nil, apperrors.ErrTenantMismatch
		}
	}

	rolePerms, err := r.store.ListRolePermissions(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}

	grants, err := r.store.ListDirectGrants(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	now := r.now()
	set := &EffectiveSet{
		UserID:      user.ID,
		CompanyID:   companyID,
		RoleID:      user.RoleID,
		RoleName:    roleName,
		Permissions: make(map[string]EffectivePermission, len(rolePerms)+len(grants)),
		ComputedAt:  now,
	}

	for _, perm := range rolePerms {
		set.Permissions[perm.Name] = EffectivePermission{
			Name:           perm.Name,
			Category:       perm.Category,
			Description:    perm.Description,
			Source:         SourceRole,
			SourceRoleName: roleName,
		}
	}

	// Direct grants override role attribution on name collision.
	for _, grant := range grants {
		if grant.Permission == nil || !grant.Active(now) {
			continue
		}
		set.Permissions[grant.Permission.Name] = EffectivePermission{
			Name:        grant.Permission.Name,
			Category:    grant.Permission.Category,
			Description: grant.Permission.Description,
			Source:      SourceDirect,
		}
	}

	metrics.ResolveDuration.Observe(r.now().Sub(started).Seconds())
	r.log.Debug("resolved effective permissions",
		zap.String("user_id", user.ID),
		zap.String("company_id", companyID),
		zap.Int("permissions", len(set.Permissions)),
	)

	return set, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
