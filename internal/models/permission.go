package models

// Permission is an opaque named capability scoped to the platform. The name
// carries no internal structure; it is matched case-sensitively and never parsed.
type Permission struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Category    string `gorm:"index" json:"category"`
	Description string `json:"description"`

	Roles []Role `gorm:"many2many:role_permissions;" json:"roles,omitempty"`
}
