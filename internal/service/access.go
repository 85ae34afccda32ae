package service

import (
	"bitwise74/share-api/internal/model"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Grant is a positive access decision
type Grant struct {
	Link *model.ShareLink
	File *model.File
}

// Evaluator decides whether a share code may be used right now. It never
// changes the download count, that's left to the caller that actually
// delivers content
type Evaluator struct {
	db     *gorm.DB
	links  *LinkService
	hasher PasswordHasher
}

func NewEvaluator(db *gorm.DB, links *LinkService, hasher PasswordHasher) *Evaluator {
	return &Evaluator{
		db:     db,
		links:  links,
		hasher: hasher,
	}
}

// Inspect runs every check except the password one. It backs the public
// metadata view
func (e *Evaluator) Inspect(ctx context.Context, code string) (*Grant, error) {
	link, err := e.usableLink(ctx, code)
	if err != nil {
		return nil, err
	}

	return e.grant(ctx, link)
}

// Evaluate checks, in order: the code exists, the link hasn't expired, the
// download limit isn't reached, the password matches and the file is still
// there. An empty password counts as no password
func (e *Evaluator) Evaluate(ctx context.Context, code, password string) (*Grant, error) {
	link, err := e.usableLink(ctx, code)
	if err != nil {
		return nil, err
	}

	if link.HasPassword {
		password = strings.TrimSpace(password)
		if password == "" {
			return nil, ErrPasswordRequired
		}

		if link.PasswordHash == nil {
			return nil, fmt.Errorf("link %d is password protected but has no hash", link.ID)
		}

		ok, err := e.hasher.VerifyPasswd(password, *link.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("failed to verify link password, %w", err)
		}

		if !ok {
			return nil, ErrInvalidPassword
		}
	}

	return e.grant(ctx, link)
}

func (e *Evaluator) usableLink(ctx context.Context, code string) (*model.ShareLink, error) {
	if code == "" {
		return nil, ErrNotFound
	}

	link, err := e.links.ByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	switch link.State(e.links.Now()) {
	case model.LinkExpired:
		return nil, ErrExpired
	case model.LinkLimitReached:
		return nil, ErrLimitReached
	}

	return link, nil
}

func (e *Evaluator) grant(ctx context.Context, link *model.ShareLink) (*Grant, error) {
	var file model.File

	err := e.db.WithContext(ctx).
		Where("id = ?", link.FileID).
		First(&file).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileGone
		}

		return nil, fmt.Errorf("failed to fetch shared file, %w", err)
	}

	return &Grant{
		Link: link,
		File: &file,
	}, nil
}
