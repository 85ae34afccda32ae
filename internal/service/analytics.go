package service

import (
	"bitwise74/share-api/internal/model"
	"bitwise74/share-api/pkg/security"
	"context"
	"fmt"

	"gorm.io/gorm"
)

const EventDownload = "download"

const maxUserAgent = 512

type DownloadEvent struct {
	Grant     *Grant
	Bytes     int64
	IP        string
	UserAgent string
}

// Analytics is the audit sink for delivered downloads. Client addresses are
// only ever stored salted and hashed
type Analytics struct {
	db     *gorm.DB
	ipSalt string
}

func NewAnalytics(db *gorm.DB, ipSalt string) *Analytics {
	return &Analytics{
		db:     db,
		ipSalt: ipSalt,
	}
}

func (a *Analytics) RecordDownload(ctx context.Context, ev DownloadEvent) error {
	ua := ev.UserAgent
	if len(ua) > maxUserAgent {
		ua = ua[:maxUserAgent]
	}

	err := a.db.WithContext(ctx).Create(&model.AnalyticsEvent{
		EventType:        EventDownload,
		OwnerUserID:      ev.Grant.Link.UserID,
		LinkID:           ev.Grant.Link.ID,
		FileID:           ev.Grant.File.ID,
		BytesTransferred: ev.Bytes,
		IPHash:           security.HashIP(ev.IP, a.ipSalt),
		UserAgent:        ua,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to record download event, %w", err)
	}

	return nil
}

type DownloadTotals struct {
	Downloads int64 `json:"downloads"`
	Bytes     int64 `json:"bytes"`
}

// Totals sums the download events of an owner
func (a *Analytics) Totals(ctx context.Context, ownerID string) (*DownloadTotals, error) {
	var t DownloadTotals

	err := a.db.WithContext(ctx).
		Model(model.AnalyticsEvent{}).
		Select("COUNT(*) AS downloads, COALESCE(SUM(bytes_transferred), 0) AS bytes").
		Where("owner_user_id = ? AND event_type = ?", ownerID, EventDownload).
		Scan(&t).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum download events, %w", err)
	}

	return &t, nil
}
