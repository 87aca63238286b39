// Package objectstore reads uploaded photos and their metadata from S3.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/photo-search/internal/photo"
)

var (
	// ErrNotFound means the bucket or key does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrTransient wraps every other S3 failure.
	ErrTransient = errors.New("object store unavailable")
)

// S3 is the object store backed by an S3 client.
type S3 struct {
	client s3iface.S3API
}

// NewS3 wraps client.
func NewS3(client s3iface.S3API) *S3 {
	return &S3{client: client}
}

func classify(op string, loc photo.Locator, err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return fmt.Errorf("%s %s: %w: %v", op, loc, ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s %s: %w: %v", op, loc, ErrTransient, err)
}

// GetObjectByteRange returns bytes start through end, inclusive. Objects
// shorter than the range return what they have.
func (s *S3) GetObjectByteRange(ctx context.Context, loc photo.Locator, start, end int64) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		return nil, classify("get range", loc, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, end-start+1))
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w: %v", loc, ErrTransient, err)
	}
	return b, nil
}

// GetObjectMetadata returns the object's user metadata with lowercased keys.
func (s *S3) GetObjectMetadata(ctx context.Context, loc photo.Locator) (map[string]string, error) {
	out, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, classify("head", loc, err)
	}
	meta := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		meta[strings.ToLower(k)] = aws.StringValue(v)
	}
	return meta, nil
}

// ObjectExists reports whether the object can be found.
func (s *S3) ObjectExists(ctx context.Context, loc photo.Locator) (bool, error) {
	if loc.Key == "" {
		return false, nil
	}
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err == nil {
		return true, nil
	}
	if err = classify("head", loc, err); errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// WalkKeys calls fn for every key under prefix in bucket. Iteration stops
// at the first error fn returns.
func (s *S3) WalkKeys(ctx context.Context, bucket, prefix string, fn func(key string) error) error {
	var fnErr error
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			if fnErr = fn(aws.StringValue(obj.Key)); fnErr != nil {
				return false
			}
		}
		return true
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return classify("list", photo.Locator{Bucket: bucket, Key: prefix}, err)
	}
	return nil
}
