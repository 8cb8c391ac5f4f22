// Package s3 adapts an S3 bucket to the blob-store interface the lifecycle
// engine consumes.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/makersmarket/lifecycle/internal/domain"
)

type BlobStore struct {
	client s3iface.S3API
	bucket string
}

type BlobStoreDependencies struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint overrides the AWS endpoint for S3-compatible stores.
	Endpoint string
}

func NewBlobStore(deps BlobStoreDependencies) (*BlobStore, error) {
	config := &aws.Config{
		Region: aws.String(deps.Region),
	}
	if deps.AccessKeyID != "" {
		config.Credentials = credentials.NewStaticCredentials(deps.AccessKeyID, deps.SecretAccessKey, "")
	}
	if deps.Endpoint != "" {
		config.Endpoint = aws.String(deps.Endpoint)
		config.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &BlobStore{
		client: s3.New(sess),
		bucket: deps.Bucket,
	}, nil
}

// NewBlobStoreWithClient wires an existing client, used by tests.
func NewBlobStoreWithClient(client s3iface.S3API, bucket string) *BlobStore {
	return &BlobStore{client: client, bucket: bucket}
}

func (s *BlobStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", path, wrapAWSError("put object", err))
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, path), nil
}

func (s *BlobStore) Get(ctx context.Context, path string) ([]byte, error) {
	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", path, wrapAWSError("get object", err))
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", path, err)
	}
	return data, nil
}

// Delete is idempotent at the S3 level: deleting a missing key succeeds, the
// executor relies on that for retried erasures.
func (s *BlobStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, wrapAWSError("delete object", err))
	}
	return nil
}

func (s *BlobStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if errors.Is(wrapAWSError("head object", err), domain.ErrBlobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object %s: %w", path, wrapAWSError("head object", err))
	}
	return true, nil
}

func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	err := s.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, object := range page.Contents {
			keys = append(keys, aws.StringValue(object.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects with prefix %q: %w", prefix, wrapAWSError("list objects", err))
	}
	return keys, nil
}

// wrapAWSError maps S3 error codes onto the engine's error taxonomy: missing
// keys are permanent not-found, request failures are retriable.
func wrapAWSError(op string, err error) error {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return domain.ErrBlobNotFound
		case "RequestError", "RequestTimeout", "SlowDown", "ServiceUnavailable", "InternalError":
			return &domain.TransientStoreError{Op: op, Err: err}
		}
	}
	return err
}
