package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/casedesk/casedesk/internal/models"
	apperrors "github.com/casedesk/casedesk/pkg/errors"
)

// Store exposes the read operations the permission engine needs. The engine
// never writes through it; users, roles and grants are mutated by the
// surrounding application.
type Store interface {
	// GetUserWithRole loads a user with their role preloaded.
	GetUserWithRole(ctx context.Context, userID string) (*models.User, error)
	// ListRolePermissions returns the permissions attached to a role.
	ListRolePermissions(ctx context.Context, roleID string) ([]models.Permission, error)
	// ListDirectGrants returns a user's direct grants with permissions preloaded,
	// including revoked and expired rows; filtering is the resolver's job.
	ListDirectGrants(ctx context.Context, userID string) ([]models.UserPermission, error)
	// ListUserIDsByCompany returns the ids of active users in a company.
	ListUserIDsByCompany(ctx context.Context, companyID string) ([]string, error)
	// ListUserIDsByRole returns the ids of active users currently holding a role.
	ListUserIDsByRole(ctx context.Context, roleID string) ([]string, error)
}

// GormStore implements Store on top of the primary SQL database.
type GormStore struct {
	db *gorm.DB
}

// New constructs a GormStore using the provided database handle.
func New(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	return &GormStore{db: db}, nil
}

// GetUserWithRole loads the user record along with its role.
func (s *GormStore) GetUserWithRole(ctx context.Context, userID string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable.WithInternal(fmt.Errorf("store: load user: %w", err))
	}

	return &user, nil
}

// ListRolePermissions returns the role's permission set as a plain slice.
func (s *GormStore) ListRolePermissions(ctx context.Context, roleID string) ([]models.Permission, error) {
	if strings.TrimSpace(roleID) == "" {
		return nil, nil
	}

	var perms []models.Permission
	err := s.db.WithContext(ctx).
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id = ?", roleID).
		Find(&perms).Error
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable.WithInternal(fmt.Errorf("store: load role permissions: %w", err))
	}

	return perms, nil
}

// ListDirectGrants returns every direct grant row recorded for the user.
func (s *GormStore) ListDirectGrants(ctx context.Context, userID string) ([]models.UserPermission, error) {
	var grants []models.UserPermission
	err := s.db.WithContext(ctx).
		Preload("Permission").
		Where("user_id = ?", userID).
		Find(&grants).Error
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable.WithInternal(fmt.Errorf("store: load direct grants: %w", err))
	}

	return grants, nil
}

// ListUserIDsByCompany returns active user ids belonging to the company.
func (s *GormStore) ListUserIDsByCompany(ctx context.Context, companyID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable.WithInternal(fmt.Errorf("store: list users by company: %w", err))
	}

	return ids, nil
}

// ListUserIDsByRole returns active user ids currently holding the role.
func (s *GormStore) ListUserIDsByRole(ctx context.Context, roleID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role_id = ? AND is_active = ?", roleID, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable.WithInternal(fmt.Errorf("store: list users by role: %w", err))
	}

	return ids, nil
}
