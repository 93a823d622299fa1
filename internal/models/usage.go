package models

import (
	"time"

	"gorm.io/datatypes"
)

// UsageRecord is one billed pipeline run. Monthly sums over month_key feed the
// volume-discount bands and re-seed the in-process cost monitor on boot.
type UsageRecord struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConversationID string         `gorm:"column:conversation_id;type:uuid;index" json:"conversation_id"`
	MonthKey       string         `gorm:"column:month_key;type:text;index" json:"month_key"` // "2026-08"
	Tier           string         `gorm:"column:tier;type:text" json:"tier"`
	BilledMinutes  float64        `gorm:"column:billed_minutes" json:"billed_minutes"`
	Cost           float64        `gorm:"column:cost" json:"cost"`
	Breakdown      datatypes.JSON `gorm:"column:breakdown;type:jsonb" json:"breakdown"`
	CreatedAt      time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (UsageRecord) TableName() string { return "usage_records" }
