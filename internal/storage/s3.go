package storage

import (
	"bytes"   // Request bodies
	"context" // Context for AWS calls
	"fmt"     // URL building
	"io"      // Response draining

	"github.com/aws/aws-sdk-go-v2/aws"              // AWS value helpers
	awsconfig "github.com/aws/aws-sdk-go-v2/config" // Default credential chain
	"github.com/aws/aws-sdk-go-v2/service/s3"       // S3 client
)

// S3Store puts user uploads and receipt archives in a single bucket.
type S3Store struct {
	client *s3.Client // S3 client
	bucket string     // Target bucket
	region string     // Bucket region, used for the public URL
}

// NewS3Store builds an S3-backed store using the default credential chain.
func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Store{
		client: s3.NewFromConfig(cfg), // S3 client
		bucket: bucket,                // Target bucket
		region: region,                // Bucket region
	}, nil
}

// Upload stores the body under key and returns the object URL.
func (s *S3Store) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),     // Target bucket
		Key:         aws.String(key),          // Object key
		Body:        bytes.NewReader(body),    // File content
		ContentType: aws.String(contentType),  // MIME type
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// Download fetches an object's content.
func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket), // Target bucket
		Key:    aws.String(key),      // Object key
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
