// Package cloudflare provides a client for interacting with Cloudflare R2
// through its S3 compatible API.
package cloudflare

import (
	"bitwise74/share-api/config"
	"bitwise74/share-api/internal/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const dialTimeout = 15 * time.Second

type R2Client struct {
	C      *s3.Client
	Bucket *string
}

// NewR2 opens the bucket of a single pool account and makes sure it exists
func NewR2(acc config.StorageAccount) (*R2Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			acc.AccessKeyID,
			acc.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	endpoint := acc.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", acc.AccountID)
	}

	region := acc.Region
	if region == "" {
		region = "auto"
	}

	bucket := aws.String(acc.Bucket)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.Region = region
		o.UsePathStyle = acc.Endpoint != ""
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("%w: bucket '%s' does not exist", storage.ErrConfiguration, acc.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &R2Client{
		C:      client,
		Bucket: bucket,
	}, nil
}

// Dial is a storage.Dialer backed by R2
func Dial(acc config.StorageAccount) (storage.ObjectStore, error) {
	return NewR2(acc)
}
