package service

import (
	"bitwise74/share-api/internal/model"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger tracks what every user stores against their quota and what the
// whole pool stores against its capacity
type Ledger struct {
	db           *gorm.DB
	defaultQuota int64
	capacity     func() int64
}

func NewLedger(db *gorm.DB, defaultQuota int64, capacity func() int64) *Ledger {
	return &Ledger{
		db:           db,
		defaultQuota: defaultQuota,
		capacity:     capacity,
	}
}

// Usage returns the quota row of a user, creating it with the default limit
// for accounts that predate the ledger
func (l *Ledger) Usage(ctx context.Context, userID string) (*model.Quota, error) {
	q := model.Quota{
		UserID:          userID,
		QuotaLimitBytes: l.defaultQuota,
	}

	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&q).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to backfill quota row, %w", err)
	}

	err = l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&q).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quota row, %w", err)
	}

	return &q, nil
}

// GlobalUsage sums every stored file. It's computed fresh on each call since
// no single write path keeps a global counter honest
func (l *Ledger) GlobalUsage(ctx context.Context) (int64, error) {
	var total int64

	err := l.db.WithContext(ctx).
		Model(model.File{}).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum file sizes, %w", err)
	}

	return total, nil
}

func (l *Ledger) GlobalLimit() int64 {
	return l.capacity()
}

// CheckUploadAllowed returns ErrUserQuotaExceeded or ErrGlobalCapacityExceeded
// when incoming bytes would push either ceiling over its limit
func (l *Ledger) CheckUploadAllowed(ctx context.Context, userID string, incoming int64) error {
	if incoming < 0 {
		return invalid("size", "can't be negative")
	}

	q, err := l.Usage(ctx, userID)
	if err != nil {
		return err
	}

	if q.StorageUsedBytes+incoming > q.QuotaLimitBytes {
		return ErrUserQuotaExceeded
	}

	total, err := l.GlobalUsage(ctx)
	if err != nil {
		return err
	}

	if total+incoming > l.GlobalLimit() {
		zap.L().Warn("Storage pool is full",
			zap.Int64("used", total),
			zap.Int64("incoming", incoming),
			zap.Int64("limit", l.GlobalLimit()))

		return ErrGlobalCapacityExceeded
	}

	return nil
}

// ApplyDelta moves a user's usage by delta bytes and files. It must run in
// the same transaction as the file row it accounts for
func ApplyDelta(tx *gorm.DB, userID string, deltaBytes int64, deltaFiles int) error {
	res := tx.
		Model(model.Quota{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"storage_used_bytes": gorm.Expr("storage_used_bytes + ?", deltaBytes),
			"uploaded_files":     gorm.Expr("uploaded_files + ?", deltaFiles),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to apply quota delta, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return errors.New("quota row missing for user " + userID)
	}

	return nil
}
