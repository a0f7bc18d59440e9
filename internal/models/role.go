package models

// Role groups permissions for the users holding it. A role either belongs to a
// single company or, when CompanyID is nil, is a standard role shared across
// tenants. Super-tenant roles may evaluate permissions in any company.
type Role struct {
	BaseModel

	Name          string  `gorm:"not null;index" json:"name"`
	Description   string  `json:"description"`
	CompanyID     *string `gorm:"type:uuid;index" json:"company_id"`
	IsSystem      bool    `gorm:"default:false" json:"is_system"`
	IsSuperTenant bool    `gorm:"default:false" json:"is_super_tenant"`

	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	Users       []User       `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}
