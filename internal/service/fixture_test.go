package service

import (
	"bitwise74/share-api/config"
	"bitwise74/share-api/internal/model"
	"bitwise74/share-api/internal/testutil"
	"bitwise74/share-api/pkg/security"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	owner    = "owner-1"
	stranger = "owner-2"
	gib      = int64(1 << 30)
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db        *gorm.DB
	store     *testutil.MemStore
	clock     *clock
	ledger    *Ledger
	files     *FileService
	links     *LinkService
	access    *Evaluator
	reclaimer *Reclaimer
}

func fastArgon() *security.ArgonHash {
	a := security.New()
	a.Memory = 8 * 1024
	a.Iterations = 1
	return a
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	d := testutil.NewDB(t)
	store := testutil.NewMemStore()
	pool := testutil.NewPool(t, 10*gib, store)
	argon := fastArgon()

	testutil.CreateUser(t, d, owner, 5*gib)
	testutil.CreateUser(t, d, stranger, 5*gib)

	c := &clock{t: time.Now().UTC().Truncate(time.Second)}

	ledger := NewLedger(d, 5*gib, pool.Capacity)
	files := NewFileService(d, pool, ledger)
	links := NewLinkService(d, argon)
	links.Now = c.Now

	reclaimer := NewReclaimer(d, files, config.ReclaimOpts{
		RetentionDays: 30,
		Workers:       4,
		Timeout:       time.Minute,
	})
	reclaimer.Now = c.Now

	return &fixture{
		db:        d,
		store:     store,
		clock:     c,
		ledger:    ledger,
		files:     files,
		links:     links,
		access:    NewEvaluator(d, links, argon),
		reclaimer: reclaimer,
	}
}

var seeded int

// seedFile writes a stored file straight into the database and the store and
// charges the owner's quota, bypassing upload policy
func (f *fixture) seedFile(t *testing.T, userID string, size int64, createdAt time.Time) *model.File {
	t.Helper()

	seeded++
	file := &model.File{
		UserID:       userID,
		OriginalName: fmt.Sprintf("file-%d.txt", seeded),
		MimeType:     "text/plain",
		Size:         size,
		StorageKey:   fmt.Sprintf("%s/seed-%d", userID, seeded),
		Bucket:       "bucket-1",
		AccountKey:   "acc1",
		Folder:       "/",
		CreatedAt:    createdAt,
	}

	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		return ApplyDelta(tx, userID, size, 1)
	}))

	f.store.Seed(file.StorageKey, []byte("data"))

	return file
}

func (f *fixture) quota(t *testing.T, userID string) *model.Quota {
	t.Helper()

	q, err := f.ledger.Usage(context.Background(), userID)
	require.NoError(t, err)
	return q
}

func (f *fixture) createLink(t *testing.T, file *model.File, opts LinkOptions) *model.ShareLink {
	t.Helper()

	link, err := f.links.Create(context.Background(), file.UserID, file.ID, opts)
	require.NoError(t, err)
	return link
}

func ptr[T any](v T) *T {
	return &v
}
