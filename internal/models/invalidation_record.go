package models

import (
	"time"

	"gorm.io/datatypes"
)

// InvalidationRecord is an audit row written whenever cache entries are
// explicitly invalidated. Criteria holds the matching fields that were
// supplied; Reason is free text used only for logging and review.
type InvalidationRecord struct {
	BaseModel

	Criteria      datatypes.JSON `gorm:"type:json" json:"criteria"`
	Reason        string         `json:"reason"`
	ClearedCount  int            `json:"cleared_count"`
	InvalidatedAt time.Time      `gorm:"index" json:"invalidated_at"`
}
