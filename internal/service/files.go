package service

import (
	"bitwise74/share-api/internal/model"
	"bitwise74/share-api/internal/storage"
	"bitwise74/share-api/pkg/util"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UploadInput struct {
	UserID   string
	Name     string
	Folder   string
	MimeType string
	Size     int64
	Body     io.Reader
}

// ListQuery narrows an owner's file listing. Order is one of the values in
// FileSortOrders
type ListQuery struct {
	Folder string
	Search string
	Sort   string
	Page   int
	Limit  int
}

var FileSortOrders = map[string]string{
	"newest":    "created_at desc",
	"oldest":    "created_at asc",
	"az":        "original_name asc",
	"za":        "original_name desc",
	"size-asc":  "size asc",
	"size-desc": "size desc",
}

type FileService struct {
	db     *gorm.DB
	pool   *storage.Pool
	ledger *Ledger
}

func NewFileService(db *gorm.DB, pool *storage.Pool, ledger *Ledger) *FileService {
	return &FileService{
		db:     db,
		pool:   pool,
		ledger: ledger,
	}
}

// Upload stores the bytes first and only then writes the file row and the
// quota charge in one transaction. If that transaction fails the object is
// removed again, a crash in between leaves an orphaned object and never a
// phantom charge
func (s *FileService) Upload(ctx context.Context, in UploadInput) (*model.File, error) {
	if in.Size < 0 {
		return nil, invalid("size", "can't be negative")
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "can't be empty")
	}

	if err := s.ledger.CheckUploadAllowed(ctx, in.UserID, in.Size); err != nil {
		return nil, err
	}

	acc := s.pool.ChooseUploadTarget(in.UserID)
	key := fmt.Sprintf("%s/%d-%s-%s", in.UserID, time.Now().UnixMilli(), uuid.NewString(), util.SafeFilename(in.Name))

	if err := acc.Store.Put(ctx, key, in.Body, in.Size, in.MimeType); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	f := &model.File{
		UserID:       in.UserID,
		OriginalName: in.Name,
		MimeType:     in.MimeType,
		Size:         in.Size,
		StorageKey:   key,
		Bucket:       acc.Bucket,
		AccountKey:   acc.Key,
		PublicURL:    acc.PublicURL(key),
		Folder:       util.NormalizeFolder(in.Folder),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(f).Error; err != nil {
			return err
		}

		return ApplyDelta(tx, in.UserID, f.Size, 1)
	})
	if err != nil {
		// The request context may be the reason the transaction failed
		if delErr := acc.Store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			zap.L().Error("Failed to clean up object after a failed upload",
				zap.String("account", acc.Key),
				zap.String("key", key),
				zap.Error(delErr))
		}

		return nil, fmt.Errorf("failed to save uploaded file, %w", err)
	}

	zap.L().Debug("File uploaded",
		zap.String("userID", in.UserID),
		zap.String("account", acc.Key),
		zap.Int64("size", f.Size))

	return f, nil
}

// Get returns a file owned by ownerID
func (s *FileService) Get(ctx context.Context, ownerID string, fileID uint) (*model.File, error) {
	var f model.File

	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", fileID, ownerID).
		First(&f).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}

		return nil, fmt.Errorf("failed to fetch file, %w", err)
	}

	return &f, nil
}

// List pages through an owner's files. Search matches the file name case
// insensitively
func (s *FileService) List(ctx context.Context, ownerID string, q ListQuery) ([]model.File, int64, error) {
	order, ok := FileSortOrders[q.Sort]
	if !ok {
		order = FileSortOrders["newest"]
	}

	tx := s.db.WithContext(ctx).
		Model(model.File{}).
		Where("user_id = ?", ownerID)

	if q.Folder != "" {
		tx = tx.Where("folder = ?", util.NormalizeFolder(q.Folder))
	}

	if q.Search != "" {
		tx = tx.Where("LOWER(original_name) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}

	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count files, %w", err)
	}

	var files []model.File

	err := tx.
		Order(order).
		Order("id desc").
		Offset(q.Page * q.Limit).
		Limit(q.Limit).
		Find(&files).
		Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files, %w", err)
	}

	return files, total, nil
}

// Move reassigns the folder of a file, the only change a file ever sees
func (s *FileService) Move(ctx context.Context, ownerID string, fileID uint, folder string) (*model.File, error) {
	res := s.db.WithContext(ctx).
		Model(model.File{}).
		Where("id = ? AND user_id = ?", fileID, ownerID).
		Update("folder", util.NormalizeFolder(folder))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to move file, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrFileNotFound
	}

	return s.Get(ctx, ownerID, fileID)
}

// Open streams the stored bytes of f. Callers must close the reader
func (s *FileService) Open(ctx context.Context, f *model.File) (io.ReadCloser, error) {
	acc, err := s.pool.ResolveForFile(f)
	if err != nil {
		return nil, err
	}

	body, err := acc.Store.Get(ctx, f.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	return body, nil
}

// Remove deletes the object, then the row together with its links and the
// quota credit. When the row is already gone another caller got there first
// and nothing is credited. The returned bool reports whether this call did
// the removal
func (s *FileService) Remove(ctx context.Context, f *model.File) (bool, error) {
	acc, err := s.pool.ResolveForFile(f)
	if err != nil {
		return false, err
	}

	if err := acc.Store.Delete(ctx, f.StorageKey); err != nil {
		return false, fmt.Errorf("%w: %w", ErrStorageIO, err)
	}

	removed := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", f.ID).Delete(&model.File{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Where("file_id = ?", f.ID).Delete(&model.ShareLink{}).Error; err != nil {
			return err
		}

		if err := ApplyDelta(tx, f.UserID, -f.Size, -1); err != nil {
			return err
		}

		removed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove file %d, %w", f.ID, err)
	}

	return removed, nil
}

// RemoveOwned removes a single file after checking ownership
func (s *FileService) RemoveOwned(ctx context.Context, ownerID string, fileID uint) (*model.File, error) {
	f, err := s.Get(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	removed, err := s.Remove(ctx, f)
	if err != nil {
		return nil, err
	}

	if !removed {
		return nil, ErrFileNotFound
	}

	return f, nil
}

type BulkResult struct {
	Deleted []uint `json:"deleted"`
	Failed  []uint `json:"failed"`
}

// RemoveMany removes every listed file the owner holds. Unknown ids and
// failures are reported back without stopping the rest
func (s *FileService) RemoveMany(ctx context.Context, ownerID string, fileIDs []uint) (*BulkResult, error) {
	var files []model.File

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", ownerID, fileIDs).
		Find(&files).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up files, %w", err)
	}

	res := &BulkResult{
		Deleted: []uint{},
		Failed:  []uint{},
	}

	found := make(map[uint]bool, len(files))

	for i := range files {
		f := &files[i]
		found[f.ID] = true

		removed, err := s.Remove(ctx, f)
		if err != nil {
			zap.L().Error("Failed to remove file in bulk", zap.Uint("fileID", f.ID), zap.Error(err))
			res.Failed = append(res.Failed, f.ID)
			continue
		}

		if removed {
			res.Deleted = append(res.Deleted, f.ID)
		}
	}

	for _, id := range fileIDs {
		if !found[id] {
			res.Failed = append(res.Failed, id)
		}
	}

	return res, nil
}
