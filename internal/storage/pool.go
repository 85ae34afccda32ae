// Package storage maps files onto the pool of object storage accounts they
// live in
package storage

import (
	"bitwise74/share-api/config"
	"bitwise74/share-api/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DriverR2       = "r2"
	DriverS3Compat = "s3compat"
)

var (
	ErrConfiguration   = errors.New("storage configuration error")
	ErrAccountNotFound = errors.New("storage account not found")
)

// ObjectStore is the raw blob store behind one account. Implementations are
// expected to be strongly consistent per key
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Account struct {
	Key           string
	Bucket        string
	PublicBaseURL string
	Store         ObjectStore
}

// PublicURL returns the public address of key, or nil when the account
// doesn't expose its bucket
func (a *Account) PublicURL(key string) *string {
	if a.PublicBaseURL == "" {
		return nil
	}

	u := strings.TrimSuffix(a.PublicBaseURL, "/") + "/" + key
	return &u
}

// Dialer opens the object store of a validated account
type Dialer func(acc config.StorageAccount) (ObjectStore, error)

type Pool struct {
	accounts      []*Account
	byKey         map[string]*Account
	byBucket      map[string]*Account
	capPerAccount int64
	strict        bool
}

// NewPool validates the configured accounts and dials each one once. The
// result is read-only and safe for concurrent use
func NewPool(c config.Storage, dial Dialer) (*Pool, error) {
	if len(c.Accounts) == 0 {
		return nil, fmt.Errorf("%w: no storage accounts configured", ErrConfiguration)
	}

	p := &Pool{
		byKey:         make(map[string]*Account, len(c.Accounts)),
		byBucket:      make(map[string]*Account, len(c.Accounts)),
		capPerAccount: c.AccountCapBytes,
		strict:        c.StrictResolve,
	}

	for i, raw := range c.Accounts {
		acc, err := normalizeAccount(raw, i)
		if err != nil {
			return nil, err
		}

		if _, ok := p.byKey[acc.Key]; ok {
			return nil, fmt.Errorf("%w: duplicate storage account key %q", ErrConfiguration, acc.Key)
		}

		store, err := dial(acc)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage account %q, %w", acc.Key, err)
		}

		a := &Account{
			Key:           acc.Key,
			Bucket:        acc.Bucket,
			PublicBaseURL: acc.PublicBaseURL,
			Store:         store,
		}

		p.accounts = append(p.accounts, a)
		p.byKey[a.Key] = a

		// First account wins when two accounts share a bucket name
		if _, ok := p.byBucket[a.Bucket]; !ok {
			p.byBucket[a.Bucket] = a
		}
	}

	return p, nil
}

func normalizeAccount(acc config.StorageAccount, index int) (config.StorageAccount, error) {
	acc.Key = strings.TrimSpace(acc.Key)
	if acc.Key == "" {
		acc.Key = fmt.Sprintf("account%d", index+1)
	}

	acc.Driver = strings.ToLower(strings.TrimSpace(acc.Driver))
	switch acc.Driver {
	case "":
		acc.Driver = DriverR2
	case DriverR2, DriverS3Compat:
	default:
		return acc, fmt.Errorf("%w: account %q has unknown driver %q", ErrConfiguration, acc.Key, acc.Driver)
	}

	if acc.Driver == DriverS3Compat && acc.Endpoint == "" {
		return acc, fmt.Errorf("%w: account %q needs an endpoint", ErrConfiguration, acc.Key)
	}

	if acc.AccountID == "" && acc.Endpoint == "" {
		return acc, fmt.Errorf("%w: account %q has neither an account id nor an endpoint", ErrConfiguration, acc.Key)
	}

	if acc.AccessKeyID == "" || acc.SecretAccessKey == "" {
		return acc, fmt.Errorf("%w: account %q is missing credentials", ErrConfiguration, acc.Key)
	}

	if acc.Bucket == "" {
		return acc, fmt.Errorf("%w: account %q is missing a bucket", ErrConfiguration, acc.Key)
	}

	return acc, nil
}

// Len returns the number of accounts in the pool
func (p *Pool) Len() int {
	return len(p.accounts)
}

// Capacity is the pool-wide storage ceiling, independent of user quotas
func (p *Pool) Capacity() int64 {
	return int64(len(p.accounts)) * p.capPerAccount
}

// ChooseUploadTarget spreads new uploads across the pool. It's a cheap
// heuristic, the same seed is not expected to land on the same account twice
func (p *Pool) ChooseUploadTarget(seed string) *Account {
	if len(p.accounts) == 1 {
		return p.accounts[0]
	}

	const (
		offset32 = 2166136261
		prime32  = 16777619
	)

	h := uint32(offset32)
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= prime32
	}

	for _, x := range [2]uint64{uint64(time.Now().UnixNano()), rand.Uint64()} {
		for range 8 {
			h ^= uint32(x & 0xff)
			h *= prime32
			x >>= 8
		}
	}

	return p.accounts[h%uint32(len(p.accounts))]
}

// ResolveForFile returns the account a stored file belongs to. Files remember
// their account key, legacy rows only their bucket. When neither matches the
// first account is used and the mismatch is logged, unless strict resolution
// is enabled
func (p *Pool) ResolveForFile(f *model.File) (*Account, error) {
	if f.AccountKey != "" {
		if a, ok := p.byKey[f.AccountKey]; ok {
			return a, nil
		}
	}

	if f.Bucket != "" {
		if a, ok := p.byBucket[f.Bucket]; ok {
			return a, nil
		}
	}

	if p.strict {
		return nil, fmt.Errorf("%w: file %d references account %q bucket %q", ErrAccountNotFound, f.ID, f.AccountKey, f.Bucket)
	}

	zap.L().Warn("Data integrity: file references an unknown storage account, falling back to the first account",
		zap.Uint("fileID", f.ID),
		zap.String("accountKey", f.AccountKey),
		zap.String("bucket", f.Bucket),
		zap.String("fallback", p.accounts[0].Key))

	return p.accounts[0], nil
}
