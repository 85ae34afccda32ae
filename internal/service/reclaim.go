package service

import (
	"bitwise74/share-api/config"
	"bitwise74/share-api/internal/model"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReclaimReport struct {
	ExpiredLinksDeleted int64     `json:"expiredLinksDeleted"`
	OrphanFilesDeleted  int32     `json:"orphanFilesDeleted"`
	OrphanFilesFailed   int32     `json:"orphanFilesFailed"`
	RetentionDays       int       `json:"retentionDays"`
	RanAt               time.Time `json:"ranAt"`
}

// Reclaimer deletes links that can no longer be used and files nobody can
// reach anymore. Every step is idempotent so overlapping runs are harmless
type Reclaimer struct {
	db    *gorm.DB
	files *FileService
	opts  config.ReclaimOpts

	Now func() time.Time
}

func NewReclaimer(db *gorm.DB, files *FileService, opts config.ReclaimOpts) *Reclaimer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	return &Reclaimer{
		db:    db,
		files: files,
		opts:  opts,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Run does both sweeps within the configured timeout
func (r *Reclaimer) Run(ctx context.Context) (*ReclaimReport, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	report := &ReclaimReport{
		RetentionDays: r.opts.RetentionDays,
		RanAt:         r.Now(),
	}

	n, err := r.SweepExpiredLinks(ctx)
	if err != nil {
		return nil, err
	}
	report.ExpiredLinksDeleted = n

	deleted, failed, err := r.SweepOrphanFiles(ctx)
	if err != nil {
		return nil, err
	}
	report.OrphanFilesDeleted = deleted
	report.OrphanFilesFailed = failed

	zap.L().Info("Reclamation finished",
		zap.Int64("expiredLinks", report.ExpiredLinksDeleted),
		zap.Int32("orphanFiles", report.OrphanFilesDeleted),
		zap.Int32("failed", report.OrphanFilesFailed))

	return report, nil
}

// SweepExpiredLinks deletes expired and exhausted links. Files are kept
func (r *Reclaimer) SweepExpiredLinks(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ? OR (max_downloads IS NOT NULL AND download_count >= max_downloads)", r.Now()).
		Delete(&model.ShareLink{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired links, %w", res.Error)
	}

	return res.RowsAffected, nil
}

// SweepOrphanFiles removes files older than the retention window that have
// no link with an expiry still ahead. A file that fails is counted and
// skipped, the rest still get processed
func (r *Reclaimer) SweepOrphanFiles(ctx context.Context) (int32, int32, error) {
	now := r.Now()
	cutoff := now.AddDate(0, 0, -r.opts.RetentionDays)

	var orphans []model.File

	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM share_links WHERE share_links.file_id = files.id AND share_links.expires_at > ?)", now).
		Find(&orphans).
		Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find orphaned files, %w", err)
	}

	if len(orphans) == 0 {
		return 0, 0, nil
	}

	zap.L().Debug("Reclaiming orphaned files", zap.Int("count", len(orphans)), zap.Int("workers", r.opts.Workers))

	var (
		deleted atomic.Int32
		failed  atomic.Int32
		wg      sync.WaitGroup
	)

	jobs := make(chan *model.File)

	for range min(r.opts.Workers, len(orphans)) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for f := range jobs {
				removed, err := r.files.Remove(ctx, f)
				if err != nil {
					failed.Add(1)
					zap.L().Error("Failed to reclaim orphaned file",
						zap.Uint("fileID", f.ID),
						zap.String("userID", f.UserID),
						zap.Error(err))
					continue
				}

				if removed {
					deleted.Add(1)
				}
			}
		}()
	}

	for i := range orphans {
		jobs <- &orphans[i]
	}
	close(jobs)

	wg.Wait()

	return deleted.Load(), failed.Load(), nil
}
