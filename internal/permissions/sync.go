package permissions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/casedesk/casedesk/internal/models"
)

// Sync persists registered permission definitions to the backing database,
// updating category and description for names that already exist.
func Sync(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("permission: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	defs := All()
	if len(defs) == 0 {
		return nil
	}

	tx := db.WithContext(ctx)
	for _, def := range defs {
		record := models.Permission{
			Name:        def.Name,
			Category:    def.Category,
			Description: def.Description,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "description", "updated_at"}),
		}).Create(&record).Error; err != nil {
			return fmt.Errorf("permission: sync %s: %w", def.Name, err)
		}
	}

	return nil
}
