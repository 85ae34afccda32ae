package model

import "time"

type LinkState string

const (
	LinkActive       LinkState = "active"
	LinkExpired      LinkState = "expired"
	LinkLimitReached LinkState = "limit_reached"
)

type ShareLink struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code   string `gorm:"uniqueIndex;size:16;not null" json:"code"`
	UserID string `gorm:"index;not null" json:"-"`
	FileID uint   `gorm:"index;not null" json:"file_id"`

	HasPassword  bool    `gorm:"not null;default:false" json:"has_password"`
	PasswordHash *string `json:"-"`

	ExpiresAt        time.Time  `gorm:"index;not null" json:"expires_at"`
	MaxDownloads     *int64     `json:"max_downloads"` // nil means unlimited
	DownloadCount    int64      `gorm:"not null;default:0" json:"download_count"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State reports where the link sits at the instant now. Expiry wins over
// the download limit and the boundary instant itself already counts as expired.
func (l *ShareLink) State(now time.Time) LinkState {
	if !now.Before(l.ExpiresAt) {
		return LinkExpired
	}

	if l.MaxDownloads != nil && l.DownloadCount >= *l.MaxDownloads {
		return LinkLimitReached
	}

	return LinkActive
}
