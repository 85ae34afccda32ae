package service

import (
	"bitwise74/share-api/internal/model"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upload(name, body string) UploadInput {
	return UploadInput{
		UserID:   owner,
		Name:     name,
		Folder:   "docs",
		MimeType: "text/plain",
		Size:     int64(len(body)),
		Body:     strings.NewReader(body),
	}
}

func TestUploadStoresAndCharges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file, err := f.files.Upload(ctx, upload("notes.txt", "hello world"))
	require.NoError(t, err)

	assert.Equal(t, "acc1", file.AccountKey)
	assert.Equal(t, "bucket-1", file.Bucket)
	assert.Equal(t, "docs", file.Folder)
	assert.True(t, strings.HasPrefix(file.StorageKey, owner+"/"))
	assert.True(t, strings.HasSuffix(file.StorageKey, "-notes.txt"))
	assert.True(t, f.store.Has(file.StorageKey))

	q := f.quota(t, owner)
	assert.EqualValues(t, 11, q.StorageUsedBytes)
	assert.Equal(t, 1, q.UploadedFiles)

	body, err := f.files.Open(ctx, file)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestUploadDeniedByQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(model.Quota{}).Where("user_id = ?", owner).Update("quota_limit_bytes", 10).Error)

	_, err := f.files.Upload(ctx, upload("big.txt", "eleven byte"))
	assert.ErrorIs(t, err, ErrUserQuotaExceeded)

	var n int64
	require.NoError(t, f.db.Model(model.File{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Zero(t, f.store.Len())

	q := f.quota(t, owner)
	assert.Zero(t, q.StorageUsedBytes)
	assert.Zero(t, q.UploadedFiles)
}

func TestUploadStorageFailureLeavesNoCharge(t *testing.T) {
	f := newFixture(t)
	f.store.PutErr = errors.New("timeout")

	_, err := f.files.Upload(context.Background(), upload("a.txt", "abc"))
	assert.ErrorIs(t, err, ErrStorageIO)

	var n int64
	require.NoError(t, f.db.Model(model.File{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Zero(t, f.quota(t, owner).StorageUsedBytes)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.files.Upload(context.Background(), upload("   ", "abc"))
	assert.True(t, IsValidation(err))
}

func TestRemoveCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	keep := f.seedFile(t, owner, 50, time.Now())
	file := f.seedFile(t, owner, 100, time.Now())
	f.createLink(t, file, LinkOptions{})
	f.createLink(t, file, LinkOptions{Password: "x"})
	kept := f.createLink(t, keep, LinkOptions{})

	before := f.quota(t, owner)

	removed, err := f.files.RemoveOwned(ctx, owner, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, removed.ID)
	assert.False(t, f.store.Has(file.StorageKey))

	after := f.quota(t, owner)
	assert.Equal(t, before.StorageUsedBytes-100, after.StorageUsedBytes)
	assert.Equal(t, before.UploadedFiles-1, after.UploadedFiles)

	var links []model.ShareLink
	require.NoError(t, f.db.Find(&links).Error)
	require.Len(t, links, 1)
	assert.Equal(t, kept.ID, links[0].ID)
}

func TestRemoveTwiceCreditsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.seedFile(t, owner, 100, time.Now())

	removed, err := f.files.Remove(ctx, file)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.files.Remove(ctx, file)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Zero(t, f.quota(t, owner).StorageUsedBytes)
}

func TestRemoveStorageFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := f.seedFile(t, owner, 100, time.Now())
	f.store.DeleteErr[file.StorageKey] = errors.New("denied")

	_, err := f.files.Remove(ctx, file)
	assert.ErrorIs(t, err, ErrStorageIO)

	_, err = f.files.Get(ctx, owner, file.ID)
	assert.NoError(t, err)
	assert.EqualValues(t, 100, f.quota(t, owner).StorageUsedBytes)
}

func TestRemoveOwnedChecksOwner(t *testing.T) {
	f := newFixture(t)
	file := f.seedFile(t, owner, 100, time.Now())

	_, err := f.files.RemoveOwned(context.Background(), stranger, file.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.True(t, f.store.Has(file.StorageKey))
}

func TestRemoveMany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.seedFile(t, owner, 10, time.Now())
	b := f.seedFile(t, owner, 20, time.Now())
	c := f.seedFile(t, owner, 30, time.Now())
	foreign := f.seedFile(t, stranger, 40, time.Now())
	f.store.DeleteErr[c.StorageKey] = errors.New("denied")

	res, err := f.files.RemoveMany(ctx, owner, []uint{a.ID, b.ID, c.ID, foreign.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, res.Deleted)
	assert.ElementsMatch(t, []uint{c.ID, foreign.ID}, res.Failed)

	assert.EqualValues(t, 30, f.quota(t, owner).StorageUsedBytes)
	assert.EqualValues(t, 40, f.quota(t, stranger).StorageUsedBytes)
}

func TestMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	file := f.seedFile(t, owner, 10, time.Now())

	moved, err := f.files.Move(ctx, owner, file.ID, "work//reports/")
	require.NoError(t, err)
	assert.Equal(t, "work/reports", moved.Folder)

	_, err = f.files.Move(ctx, stranger, file.ID, "x")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for range 5 {
		f.seedFile(t, owner, 10, time.Now())
	}
	f.seedFile(t, stranger, 10, time.Now())

	_, err := f.files.Upload(ctx, upload("Quarterly Report.TXT", "abc"))
	require.NoError(t, err)

	files, total, err := f.files.List(ctx, owner, ListQuery{Page: 0, Limit: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, files, 4)

	files, total, err = f.files.List(ctx, owner, ListQuery{Page: 1, Limit: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, files, 2)

	files, total, err = f.files.List(ctx, owner, ListQuery{Search: "quarterly", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, files, 1)
	assert.Equal(t, "Quarterly Report.TXT", files[0].OriginalName)

	files, _, err = f.files.List(ctx, owner, ListQuery{Folder: "docs", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, files, 1)

	files, _, err = f.files.List(ctx, owner, ListQuery{Sort: "size-asc", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, files[0].Size)
}
