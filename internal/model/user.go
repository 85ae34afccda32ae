package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time

	Files []File `gorm:"foreignKey:UserID"`
	Quota Quota  `gorm:"foreignKey:UserID"`
}

// Quota is the per-user side of the storage ledger
type Quota struct {
	UserID           string    `gorm:"primaryKey" json:"-"`
	QuotaLimitBytes  int64     `gorm:"not null" json:"limitBytes"`
	StorageUsedBytes int64     `gorm:"not null;default:0" json:"usedBytes"`
	UploadedFiles    int       `gorm:"not null;default:0" json:"uploadedFiles"`
	UpdatedAt        time.Time `json:"-"`
}
