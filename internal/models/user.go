package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a platform account. Every user holds exactly one role and belongs to
// at most one company; CompanyID is nil only for accounts not yet assigned to
// a tenant.
type User struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	CompanyID *string `gorm:"type:uuid;index" json:"company_id"`
	RoleID    string  `gorm:"type:uuid;not null;index" json:"role_id"`
	Role      *Role   `json:"role,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	DirectGrants []UserPermission `gorm:"foreignKey:UserID" json:"direct_grants,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
