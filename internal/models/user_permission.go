package models

import "time"

// UserPermission is a direct permission grant attached to a single user,
// independent of their role. Granted=false rows are explicit revocation
// records and never contribute to the effective set; neither do grants whose
// ExpiresAt has passed.
type UserPermission struct {
	BaseModel

	UserID       string      `gorm:"type:uuid;not null;index:idx_user_permission,unique" json:"user_id"`
	PermissionID string      `gorm:"type:uuid;not null;index:idx_user_permission,unique" json:"permission_id"`
	Permission   *Permission `json:"permission,omitempty"`

	Granted   bool       `gorm:"default:true" json:"granted"`
	GrantedAt time.Time  `json:"granted_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	GrantedBy *string    `gorm:"type:uuid" json:"granted_by"`
}

// Active reports whether the grant contributes to an effective set at the
// supplied instant.
func (p UserPermission) Active(now time.Time) bool {
	if !p.Granted {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	return true
}
