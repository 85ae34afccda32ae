package service

import (
	"bitwise74/share-api/internal/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultExpiryHours = 24
	MinExpiryHours     = 1
	MaxExpiryHours     = 720
)

// PasswordHasher is satisfied by security.ArgonHash
type PasswordHasher interface {
	GenerateFromPassword(p string) (string, error)
	VerifyPasswd(p, e string) (bool, error)
}

type LinkOptions struct {
	Password     string
	ExpiryHours  *int   // nil picks DefaultExpiryHours
	MaxDownloads *int64 // nil means unlimited
}

// LinkView is a link as its owner sees it in listings
type LinkView struct {
	model.ShareLink
	FileName string          `json:"file_name"`
	State    model.LinkState `gorm:"-" json:"state"`
}

type LinkService struct {
	db     *gorm.DB
	hasher PasswordHasher

	// Now and Generate are swapped out in tests
	Now      func() time.Time
	Generate func() (string, error)
}

func NewLinkService(db *gorm.DB, hasher PasswordHasher) *LinkService {
	return &LinkService{
		db:       db,
		hasher:   hasher,
		Now:      func() time.Time { return time.Now().UTC() },
		Generate: GenerateCode,
	}
}

func validateExpiry(hours int) error {
	if hours < MinExpiryHours || hours > MaxExpiryHours {
		return invalid("expiryHours", fmt.Sprintf("must be between %d and %d", MinExpiryHours, MaxExpiryHours))
	}

	return nil
}

func (s *LinkService) codeExists(ctx context.Context, code string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(model.ShareLink{}).
		Where("code = ?", code).
		Count(&n).
		Error

	return n > 0, err
}

func (s *LinkService) uniqueCode(ctx context.Context) (string, error) {
	code, err := EnsureUnique(ctx, s.Generate, s.codeExists)
	if err != nil {
		return "", fmt.Errorf("failed to generate share code, %w", err)
	}

	return code, nil
}

// Create issues a new link for a file the owner holds. A code that collides
// at insert time is replaced and the insert retried
func (s *LinkService) Create(ctx context.Context, ownerID string, fileID uint, opts LinkOptions) (*model.ShareLink, error) {
	hours := DefaultExpiryHours
	if opts.ExpiryHours != nil {
		hours = *opts.ExpiryHours
	}

	if err := validateExpiry(hours); err != nil {
		return nil, err
	}

	if opts.MaxDownloads != nil && *opts.MaxDownloads <= 0 {
		return nil, invalid("maxDownloads", "must be a positive integer")
	}

	var file model.File

	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", fileID, ownerID).
		Select("id").
		First(&file).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}

		return nil, fmt.Errorf("failed to look up file, %w", err)
	}

	link := &model.ShareLink{
		UserID:       ownerID,
		FileID:       file.ID,
		ExpiresAt:    s.Now().Add(time.Duration(hours) * time.Hour),
		MaxDownloads: opts.MaxDownloads,
	}

	if password := strings.TrimSpace(opts.Password); password != "" {
		hash, err := s.hasher.GenerateFromPassword(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash link password, %w", err)
		}

		link.HasPassword = true
		link.PasswordHash = &hash
	}

	for {
		link.Code, err = s.uniqueCode(ctx)
		if err != nil {
			return nil, err
		}

		err = s.db.WithContext(ctx).Create(link).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			zap.L().Debug("Share code collided on insert, retrying", zap.String("code", link.Code))
			link.ID = 0
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create share link, %w", err)
		}

		return link, nil
	}
}

// Get returns a link owned by ownerID
func (s *LinkService) Get(ctx context.Context, ownerID string, linkID uint) (*model.ShareLink, error) {
	var link model.ShareLink

	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", linkID, ownerID).
		First(&link).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch share link, %w", err)
	}

	return &link, nil
}

func (s *LinkService) ByCode(ctx context.Context, code string) (*model.ShareLink, error) {
	var link model.ShareLink

	err := s.db.WithContext(ctx).
		Where("code = ?", code).
		First(&link).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch share link, %w", err)
	}

	return &link, nil
}

// List returns every link of an owner with the name of the file it points
// to, newest first
func (s *LinkService) List(ctx context.Context, ownerID string) ([]LinkView, error) {
	var links []LinkView

	err := s.db.WithContext(ctx).
		Table("share_links").
		Select("share_links.*, files.original_name AS file_name").
		Joins("LEFT JOIN files ON files.id = share_links.file_id").
		Where("share_links.user_id = ?", ownerID).
		Order("share_links.created_at desc, share_links.id desc").
		Scan(&links).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list share links, %w", err)
	}

	now := s.Now()
	for i := range links {
		links[i].State = links[i].ShareLink.State(now)
	}

	return links, nil
}

func (s *LinkService) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(model.ShareLink{}).
		Where("user_id = ?", ownerID).
		Count(&n).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to count share links, %w", err)
	}

	return n, nil
}

// Extend pushes the expiry to max(now, expiresAt) + hours. The write only
// lands if it moves the expiry forward, so racing extensions keep the later
// value. The download count is left alone
func (s *LinkService) Extend(ctx context.Context, ownerID string, linkID uint, hours int) (*model.ShareLink, error) {
	if err := validateExpiry(hours); err != nil {
		return nil, err
	}

	link, err := s.Get(ctx, ownerID, linkID)
	if err != nil {
		return nil, err
	}

	base := s.Now()
	if link.ExpiresAt.After(base) {
		base = link.ExpiresAt
	}

	expiresAt := base.Add(time.Duration(hours) * time.Hour)

	err = s.db.WithContext(ctx).
		Model(model.ShareLink{}).
		Where("id = ? AND user_id = ? AND expires_at < ?", link.ID, ownerID, expiresAt).
		Update("expires_at", expiresAt).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to extend share link, %w", err)
	}

	return s.Get(ctx, ownerID, linkID)
}

// RegenerateCode swaps the code of a link. The old code stops resolving as
// soon as the update commits
func (s *LinkService) RegenerateCode(ctx context.Context, ownerID string, linkID uint) (*model.ShareLink, error) {
	link, err := s.Get(ctx, ownerID, linkID)
	if err != nil {
		return nil, err
	}

	for {
		code, err := s.uniqueCode(ctx)
		if err != nil {
			return nil, err
		}

		res := s.db.WithContext(ctx).
			Model(model.ShareLink{}).
			Where("id = ? AND user_id = ?", link.ID, ownerID).
			Update("code", code)
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			continue
		}
		if res.Error != nil {
			return nil, fmt.Errorf("failed to regenerate share code, %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}

		break
	}

	return s.Get(ctx, ownerID, linkID)
}

// Revoke deletes the link outright
func (s *LinkService) Revoke(ctx context.Context, ownerID string, linkID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", linkID, ownerID).
		Delete(&model.ShareLink{})
	if res.Error != nil {
		return fmt.Errorf("failed to revoke share link, %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// RecordDownload counts one delivery against the link. The increment is a
// single conditional UPDATE that only matches a link that is still active
// and under its limit, so N concurrent callers at count max-1 produce exactly
// one success. A rejected increment reports why the link is no longer usable
func (s *LinkService) RecordDownload(ctx context.Context, link *model.ShareLink) (*model.ShareLink, error) {
	now := s.Now()

	res := s.db.WithContext(ctx).
		Model(model.ShareLink{}).
		Where("id = ? AND code = ?", link.ID, link.Code).
		Where("expires_at > ?", now).
		Where("(max_downloads IS NULL OR download_count < max_downloads)").
		Updates(map[string]any{
			"download_count":     gorm.Expr("download_count + ?", 1),
			"last_downloaded_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to record download, %w", res.Error)
	}

	var current model.ShareLink

	err := s.db.WithContext(ctx).
		Where("id = ?", link.ID).
		First(&current).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to reload share link, %w", err)
	}

	if res.RowsAffected == 1 {
		return &current, nil
	}

	if current.Code != link.Code {
		return nil, ErrNotFound
	}

	switch current.State(now) {
	case model.LinkExpired:
		return nil, ErrExpired
	case model.LinkLimitReached:
		return nil, ErrLimitReached
	}

	return nil, fmt.Errorf("download of link %d was not recorded", link.ID)
}
