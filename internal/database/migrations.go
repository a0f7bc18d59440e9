package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/casedesk/casedesk/internal/models"
	"github.com/casedesk/casedesk/internal/permissions"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserPermission{},
		&models.InvalidationRecord{},
	)
}

// SeedData populates the permission catalog and the standard tenant roles.
// Standard roles are shared across companies; Platform Admin additionally
// evaluates permissions in any company.
func SeedData(db *gorm.DB) error {
	if err := permissions.Sync(context.Background(), db); err != nil {
		return err
	}

	roles := []models.Role{
		{
			BaseModel:     models.BaseModel{ID: "platform-admin"},
			Name:          "Platform Admin",
			Description:   "Cross-tenant operations access",
			IsSystem:      true,
			IsSuperTenant: true,
		},
		{
			BaseModel:   models.BaseModel{ID: "firm-admin"},
			Name:        "Firm Admin",
			Description: "Full access within the firm",
			IsSystem:    true,
		},
		{
			BaseModel:   models.BaseModel{ID: "attorney"},
			Name:        "Attorney",
			Description: "Files and manages petitions",
			IsSystem:    true,
		},
		{
			BaseModel:   models.BaseModel{ID: "paralegal"},
			Name:        "Paralegal",
			Description: "Prepares petitions and documents",
			IsSystem:    true,
		},
	}

	for _, role := range roles {
		if err := db.Where(models.Role{BaseModel: models.BaseModel{ID: role.ID}}).Attrs(role).FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}

	return seedRolePermissions(db)
}

// seedRolePermissions attaches the default permission sets to the standard
// roles. Associations already present are left untouched.
func seedRolePermissions(db *gorm.DB) error {
	grants := map[string][]string{
		"platform-admin": permissionNames(permissions.All()),
		"firm-admin": {
			"VIEW_PETITION", "FILE_PETITION", "EDIT_PETITION", "DELETE_PETITION",
			"VIEW_DOCUMENTS", "UPLOAD_DOCUMENTS",
			"VIEW_TEAM", "MANAGE_TEAM", "VIEW_REPORTS",
			"MANAGE_USERS", "MANAGE_PERMISSIONS",
			"VIEW_BILLING", "MANAGE_BILLING",
		},
		"attorney": {
			"VIEW_PETITION", "FILE_PETITION", "EDIT_PETITION",
			"VIEW_DOCUMENTS", "UPLOAD_DOCUMENTS", "VIEW_TEAM", "VIEW_REPORTS",
		},
		"paralegal": {
			"VIEW_PETITION", "EDIT_PETITION",
			"VIEW_DOCUMENTS", "UPLOAD_DOCUMENTS", "VIEW_TEAM",
		},
	}

	for roleID, names := range grants {
		var role models.Role
		if err := db.Preload("Permissions").First(&role, "id = ?", roleID).Error; err != nil {
			return err
		}
		if len(role.Permissions) > 0 {
			continue
		}

		var perms []models.Permission
		if err := db.Where("name IN ?", names).Find(&perms).Error; err != nil {
			return err
		}
		if len(perms) == 0 {
			continue
		}
		if err := db.Model(&role).Association("Permissions").Append(&perms); err != nil {
			return err
		}
	}

	return nil
}

func permissionNames(defs []permissions.Definition) []string {
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names
}
