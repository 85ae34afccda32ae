// Package s3compat talks to self-hosted S3 compatible servers such as MinIO.
// It's meant for local setups where R2 isn't available
package s3compat

import (
	"bitwise74/share-api/config"
	"bitwise74/share-api/internal/storage"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const dialTimeout = 15 * time.Second

type Client struct {
	C      *minio.Client
	Bucket string
}

// endpoint strips the scheme from a configured endpoint. Plain http is only
// used when asked for explicitly
func endpoint(raw string) (string, bool, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// host:port without a scheme
		return raw, true, nil
	}

	switch u.Scheme {
	case "https":
		return u.Host, true, nil
	case "http":
		return u.Host, false, nil
	}

	return "", false, fmt.Errorf("%w: unsupported endpoint scheme %q", storage.ErrConfiguration, u.Scheme)
}

// New opens the bucket of a pool account served by an S3 compatible server
func New(acc config.StorageAccount) (*Client, error) {
	if acc.Endpoint == "" {
		return nil, fmt.Errorf("%w: account %q needs an endpoint", storage.ErrConfiguration, acc.Key)
	}

	host, secure, err := endpoint(acc.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(acc.AccessKeyID, acc.SecretAccessKey, ""),
		Secure: secure,
		Region: acc.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client, %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	ok, err := client.BucketExists(ctx, acc.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: bucket '%s' does not exist", storage.ErrConfiguration, acc.Bucket)
	}

	return &Client{
		C:      client,
		Bucket: acc.Bucket,
	}, nil
}

// Dial is a storage.Dialer for S3 compatible servers
func Dial(acc config.StorageAccount) (storage.ObjectStore, error) {
	return New(acc)
}

func (m *Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := m.C.PutObject(ctx, m.Bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s, %w", key, err)
	}

	zap.L().Debug("Object stored", zap.String("bucket", m.Bucket), zap.String("key", key))
	return nil
}

// Get returns a lazy reader, a missing key only surfaces on the first read.
// Stat is checked first so callers get the error before streaming
func (m *Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.C.GetObject(ctx, m.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s, %w", key, err)
	}

	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to get object %s, %w", key, err)
	}

	return obj, nil
}

// Delete is idempotent, removing a missing key succeeds
func (m *Client) Delete(ctx context.Context, key string) error {
	err := m.C.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s, %w", key, err)
	}

	return nil
}
