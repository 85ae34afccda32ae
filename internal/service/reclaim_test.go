package service

import (
	"bitwise74/share-api/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiredLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	file := f.seedFile(t, owner, 100, time.Now())

	expired := f.createLink(t, file, LinkOptions{ExpiryHours: ptr(1)})
	exhausted := f.createLink(t, file, LinkOptions{MaxDownloads: ptr(int64(1))})
	active := f.createLink(t, file, LinkOptions{MaxDownloads: ptr(int64(2))})
	unlimited := f.createLink(t, file, LinkOptions{})

	_, err := f.links.RecordDownload(ctx, exhausted)
	require.NoError(t, err)
	_, err = f.links.RecordDownload(ctx, active)
	require.NoError(t, err)

	f.clock.Set(expired.ExpiresAt.Add(time.Second))

	n, err := f.reclaimer.SweepExpiredLinks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var left []uint
	require.NoError(t, f.db.Model(model.ShareLink{}).Order("id").Pluck("id", &left).Error)
	assert.Equal(t, []uint{active.ID, unlimited.ID}, left)

	// Files are never touched by this sweep
	_, err = f.files.Get(ctx, owner, file.ID)
	assert.NoError(t, err)

	n, err = f.reclaimer.SweepExpiredLinks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepOrphanFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.Now()
	old := now.AddDate(0, 0, -31)

	orphan := f.seedFile(t, owner, 100, old)
	linked := f.seedFile(t, owner, 200, old)
	deadLink := f.seedFile(t, owner, 300, old)
	recent := f.seedFile(t, owner, 400, now.AddDate(0, 0, -2))

	f.createLink(t, linked, LinkOptions{})

	f.clock.Set(now.Add(-48 * time.Hour))
	f.createLink(t, deadLink, LinkOptions{ExpiryHours: ptr(1)})
	f.clock.Set(now)

	before := f.quota(t, owner)

	deleted, failed, err := f.reclaimer.SweepOrphanFiles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.Zero(t, failed)

	assert.False(t, f.store.Has(orphan.StorageKey))
	assert.False(t, f.store.Has(deadLink.StorageKey))
	assert.True(t, f.store.Has(linked.StorageKey))
	assert.True(t, f.store.Has(recent.StorageKey))

	after := f.quota(t, owner)
	assert.Equal(t, before.StorageUsedBytes-400, after.StorageUsedBytes)
	assert.Equal(t, before.UploadedFiles-2, after.UploadedFiles)

	var links int64
	require.NoError(t, f.db.Model(model.ShareLink{}).Where("file_id = ?", deadLink.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestSweepOrphanFilesKeepsGoingOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.clock.Now().AddDate(0, 0, -40)

	var files []*model.File
	for range 6 {
		files = append(files, f.seedFile(t, owner, 10, old))
	}
	f.store.DeleteErr[files[2].StorageKey] = errors.New("denied")

	deleted, failed, err := f.reclaimer.SweepOrphanFiles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, deleted)
	assert.EqualValues(t, 1, failed)

	assert.EqualValues(t, 10, f.quota(t, owner).StorageUsedBytes)
	assert.True(t, f.store.Has(files[2].StorageKey))
}

func TestReclaimRunsOverlapWithoutDoubleCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.clock.Now().AddDate(0, 0, -40)

	for range 10 {
		f.seedFile(t, owner, 10, old)
	}

	done := make(chan *ReclaimReport, 2)
	for range 2 {
		go func() {
			report, err := f.reclaimer.Run(ctx)
			assert.NoError(t, err)
			done <- report
		}()
	}

	total := int32(0)
	for range 2 {
		if report := <-done; report != nil {
			total += report.OrphanFilesDeleted
			assert.Equal(t, 30, report.RetentionDays)
		}
	}

	assert.EqualValues(t, 10, total)

	q := f.quota(t, owner)
	assert.Zero(t, q.StorageUsedBytes)
	assert.Zero(t, q.UploadedFiles)
}

func TestSweepOrphanFilesRetentionBoundary(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	atCutoff := f.seedFile(t, owner, 100, now.AddDate(0, 0, -30))
	pastCutoff := f.seedFile(t, owner, 100, now.AddDate(0, 0, -30).Add(-time.Second))

	deleted, _, err := f.reclaimer.SweepOrphanFiles(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	assert.True(t, f.store.Has(atCutoff.StorageKey))
	assert.False(t, f.store.Has(pastCutoff.StorageKey))
}
