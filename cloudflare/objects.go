package cloudflare

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const minMultipartSize = 12 << 20

// Put stores body under key. Bodies over minMultipartSize go through the
// multipart uploader
func (r *R2Client) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	objectInput := &s3.PutObjectInput{
		Bucket:      r.Bucket,
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}

	var err error
	if size > minMultipartSize {
		uploader := manager.NewUploader(r.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err = uploader.Upload(ctx, objectInput)
	} else {
		objectInput.ContentLength = aws.Int64(size)
		_, err = r.C.PutObject(ctx, objectInput)
	}
	if err != nil {
		return fmt.Errorf("failed to put object %s, %w", key, err)
	}

	zap.L().Debug("Object stored", zap.String("bucket", *r.Bucket), zap.String("key", key), zap.Int64("size", size))
	return nil
}

// Get opens a streaming reader for key. Callers must close it
func (r *R2Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := r.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: r.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s, %w", key, err)
	}

	return out.Body, nil
}

// Delete removes key. Deleting a missing key is not an error on R2
func (r *R2Client) Delete(ctx context.Context, key string) error {
	_, err := r.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: r.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s, %w", key, err)
	}

	return nil
}
