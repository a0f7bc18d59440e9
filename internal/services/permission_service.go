package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/casedesk/casedesk/internal/cache"
	"github.com/casedesk/casedesk/internal/models"
	"github.com/casedesk/casedesk/internal/permissions"
	"github.com/casedesk/casedesk/internal/store"
	apperrors "github.com/casedesk/casedesk/pkg/errors"
	"github.com/casedesk/casedesk/pkg/logger"
	"github.com/casedesk/casedesk/pkg/metrics"
)

const (
	// maxPermissionNameLength bounds the accepted length of a permission name.
	// Names are otherwise opaque: anything within bounds is an ordinary
	// lookup that simply misses when unknown.
	maxPermissionNameLength = 256
	// maxBulkCheckSize bounds a single checkMany request.
	maxBulkCheckSize = 100
)

// PermissionService is the query surface of the permission engine. It
// consults the cache first, delegates to the resolver on miss, and attributes
// every grant to its source.
type PermissionService struct {
	db       *gorm.DB
	store    store.Store
	resolver *permissions.Resolver
	cache    *cache.PermissionCache
	log      *zap.Logger
	now      func() time.Time
}

// NewPermissionService wires the service from its collaborators. All of them
// are required; the db handle is used only to record invalidation audit rows.
func NewPermissionService(db *gorm.DB, s store.Store, r *permissions.Resolver, c *cache.PermissionCache) (*PermissionService, error) {
	if db == nil {
		return nil, errors.New("permission service: db is required")
	}
	if s == nil {
		return nil, errors.New("permission service: store is required")
	}
	if r == nil {
		return nil, errors.New("permission service: resolver is required")
	}
	if c == nil {
		return nil, errors.New("permission service: cache is required")
	}
	return &PermissionService{
		db:       db,
		store:    s,
		resolver: r,
		cache:    c,
		log:      logger.WithModule("permission-service"),
		now:      time.Now,
	}, nil
}

// CheckInput describes a single permission check.
type CheckInput struct {
	UserID       string
	Permission   string
	CompanyID    string
	ForceRefresh bool
}

// CheckManyInput describes a bulk permission check.
type CheckManyInput struct {
	UserID       string
	Permissions  []string
	CompanyID    string
	ForceRefresh bool
}

// CheckResult reports the outcome for one permission name.
type CheckResult struct {
	Permission     string             `json:"permission"`
	Granted        bool               `json:"granted"`
	Source         permissions.Source `json:"source,omitempty"`
	SourceRoleName string             `json:"source_role_name,omitempty"`
	CheckedAt      time.Time          `json:"checked_at"`
	FromCache      bool               `json:"from_cache"`
}

// EffectivePermissions returns the user's effective set for the supplied
// company context, cache-first. The boolean reports whether the set came
// from cache. forceRefresh bypasses the cache and repopulates it.
func (s *PermissionService) EffectivePermissions(ctx context.Context, userID, companyID string, forceRefresh bool) (*permissions.EffectiveSet, bool, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false, apperrors.NewInvalidInput("user id is required")
	}
	companyID = strings.TrimSpace(companyID)

	if !forceRefresh {
		if set, ok := s.cache.Get(userID, companyID); ok {
			return set, true, nil
		}
	}

	set, err := s.resolver.Resolve(ctx, userID, companyID)
	if err != nil {
		return nil, false, err
	}

	s.cache.Put(userID, companyID, set)
	return set, false, nil
}

// Check evaluates a single permission for the user.
func (s *PermissionService) Check(ctx context.Context, input CheckInput) (CheckResult, error) {
	if err := validatePermissionName(input.Permission); err != nil {
		return CheckResult{}, err
	}

	set, fromCache, err := s.EffectivePermissions(ctx, input.UserID, input.CompanyID, input.ForceRefresh)
	if err != nil {
		return CheckResult{}, err
	}

	return s.resultFor(set, input.Permission, fromCache), nil
}

// CheckMany evaluates each permission independently and preserves input
// order; a denied early entry never short-circuits the rest.
func (s *PermissionService) CheckMany(ctx context.Context, input CheckManyInput) ([]CheckResult, error) {
	if len(input.Permissions) == 0 {
		return nil, apperrors.ErrInvalidCheckRequest
	}
	if len(input.Permissions) > maxBulkCheckSize {
		return nil, apperrors.NewInvalidInput("too many permissions in a single check")
	}
	for _, name := range input.Permissions {
		if err := validatePermissionName(name); err != nil {
			return nil, err
		}
	}

	set, fromCache, err := s.EffectivePermissions(ctx, input.UserID, input.CompanyID, input.ForceRefresh)
	if err != nil {
		return nil, err
	}

	results := make([]CheckResult, 0, len(input.Permissions))
	for _, name := range input.Permissions {
		results = append(results, s.resultFor(set, name, fromCache))
	}
	return results, nil
}

func (s *PermissionService) resultFor(set *permissions.EffectiveSet, name string, fromCache bool) CheckResult {
	result := CheckResult{
		Permission: name,
		CheckedAt:  s.now(),
		FromCache:  fromCache,
	}

	if perm, ok := set.Has(name); ok {
		result.Granted = true
		result.Source = perm.Source
		result.SourceRoleName = perm.SourceRoleName
		metrics.PermissionChecks.WithLabelValues("granted").Inc()
	} else {
		metrics.PermissionChecks.WithLabelValues("denied").Inc()
	}

	return result
}

func validatePermissionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.ErrInvalidCheckRequest
	}
	if len(name) > maxPermissionNameLength {
		return apperrors.NewInvalidInput("permission name exceeds maximum length")
	}
	return nil
}

// InvalidateInput selects cached entries to clear; Reason is free text used
// for logging and the audit trail only.
type InvalidateInput struct {
	UserID    string
	RoleID    string
	CompanyID string
	All       bool
	Reason    string
}

// InvalidateResult reports what was cleared.
type InvalidateResult struct {
	InvalidatedCount int       `json:"invalidated_count"`
	InvalidatedKeys  []string  `json:"invalidated_keys"`
	InvalidatedAt    time.Time `json:"invalidated_at"`
	Reason           string    `json:"reason,omitempty"`
}

// Invalidate clears matching cache entries immediately and records an audit
// row. The audit write is best effort; a failure is logged, never surfaced.
func (s *PermissionService) Invalidate(ctx context.Context, input InvalidateInput) (InvalidateResult, error) {
	ctx = ensureContext(ctx)

	criteria := cache.Criteria{
		UserID:    strings.TrimSpace(input.UserID),
		RoleID:    strings.TrimSpace(input.RoleID),
		CompanyID: strings.TrimSpace(input.CompanyID),
		All:       input.All,
	}
	if !criteria.All && criteria.UserID == "" && criteria.RoleID == "" && criteria.CompanyID == "" {
		return InvalidateResult{}, apperrors.NewInvalidInput("at least one invalidation criterion is required")
	}

	cleared := s.cache.Invalidate(criteria)
	invalidatedAt := s.now()

	s.log.Info("cache invalidated",
		zap.String("user_id", criteria.UserID),
		zap.String("role_id", criteria.RoleID),
		zap.String("company_id", criteria.CompanyID),
		zap.Bool("all", criteria.All),
		zap.Int("cleared", cleared.Count),
		zap.String("reason", input.Reason),
	)

	s.recordInvalidation(ctx, criteria, cleared.Count, input.Reason, invalidatedAt)

	return InvalidateResult{
		InvalidatedCount: cleared.Count,
		InvalidatedKeys:  cleared.Keys,
		InvalidatedAt:    invalidatedAt,
		Reason:           input.Reason,
	}, nil
}

func (s *PermissionService) recordInvalidation(ctx context.Context, criteria cache.Criteria, count int, reason string, at time.Time) {
	payload, err := json.Marshal(map[string]any{
		"user_id":    criteria.UserID,
		"role_id":    criteria.RoleID,
		"company_id": criteria.CompanyID,
		"all":        criteria.All,
	})
	if err != nil {
		s.log.Warn("marshal invalidation criteria", zap.Error(err))
		return
	}

	record := models.InvalidationRecord{
		Criteria:      datatypes.JSON(payload),
		Reason:        reason,
		ClearedCount:  count,
		InvalidatedAt: at,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.log.Warn("record invalidation", zap.Error(err))
	}
}

// CacheStats returns the cache's observability snapshot.
func (s *PermissionService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
