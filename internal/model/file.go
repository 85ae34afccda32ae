// Package model defines database models
package model

import "time"

type File struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string `gorm:"index;not null" json:"-"`
	OriginalName string `gorm:"not null" json:"name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `gorm:"not null" json:"size"`
	// Keys are only unique inside a bucket, the pool can hold several buckets
	StorageKey string  `gorm:"uniqueIndex:idx_files_bucket_key;not null" json:"key"`
	Bucket     string  `gorm:"uniqueIndex:idx_files_bucket_key;not null" json:"-"`
	AccountKey string  `json:"-"` // Empty for records written before the pool existed
	PublicURL  *string `json:"public_url"`
	Folder     string  `gorm:"index;default:/" json:"folder"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
