// Package testutil provides in-memory databases and object stores for tests
package testutil

import (
	"bitwise74/share-api/config"
	"bitwise74/share-api/db"
	"bitwise74/share-api/internal/model"
	"bitwise74/share-api/internal/storage"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var ErrNoSuchKey = errors.New("no such key")

// NewDB opens a private, migrated in-memory sqlite database. A single
// connection keeps every goroutine on the same database and serialises
// writes the way sqlite would anyway
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := db.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())))
	require.NoError(t, err)

	sqlDB, err := d.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { sqlDB.Close() })

	return d
}

// CreateUser inserts a user with a quota row
func CreateUser(t *testing.T, d *gorm.DB, id string, limit int64) *model.User {
	t.Helper()

	u := &model.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		Quota: model.Quota{
			QuotaLimitBytes: limit,
		},
	}
	require.NoError(t, d.Create(u).Error)

	return u
}

// MemStore is an ObjectStore kept in memory. Errors can be injected per key
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutErr    error
	GetErr    error
	DeleteErr map[string]error
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects:   make(map[string][]byte),
		DeleteErr: make(map[string]error),
	}
}

func (m *MemStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	return nil
}

func (m *MemStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNoSuchKey
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.DeleteErr[key]; err != nil {
		return err
	}

	delete(m.objects, key)
	return nil
}

// Seed stores data under key without going through Put
func (m *MemStore) Seed(key string, data []byte) {
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
}

func (m *MemStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]
	return ok
}

func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.objects)
}

// NewPool builds a pool with one account per store. Accounts are keyed
// acc1, acc2... with buckets bucket-1, bucket-2...
func NewPool(t *testing.T, capPerAccount int64, stores ...*MemStore) *storage.Pool {
	t.Helper()

	c := config.Storage{AccountCapBytes: capPerAccount}
	byKey := make(map[string]*MemStore, len(stores))

	for i, s := range stores {
		key := fmt.Sprintf("acc%d", i+1)
		byKey[key] = s
		c.Accounts = append(c.Accounts, config.StorageAccount{
			Key:             key,
			AccountID:       "test",
			AccessKeyID:     "id",
			SecretAccessKey: "secret",
			Bucket:          fmt.Sprintf("bucket-%d", i+1),
		})
	}

	p, err := storage.NewPool(c, func(acc config.StorageAccount) (storage.ObjectStore, error) {
		return byKey[acc.Key], nil
	})
	require.NoError(t, err)

	return p
}
