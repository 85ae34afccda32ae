package model

import "time"

type AnalyticsEvent struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	EventType        string `gorm:"not null"`
	OwnerUserID      string `gorm:"index:idx_analytics_owner_created,priority:1"`
	LinkID           uint
	FileID           uint
	BytesTransferred int64
	IPHash           string
	UserAgent        string    `gorm:"size:512"`
	CreatedAt        time.Time `gorm:"index:idx_analytics_owner_created,priority:2,sort:desc"`
}
