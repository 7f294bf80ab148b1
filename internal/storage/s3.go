// Package storage uploads user-submitted files (profile pictures,
// property and unit images, verification documents, maintenance photos)
// to an S3 bucket and hands back public URLs.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// Config carries the bucket coordinates. An empty Bucket disables
// uploads; handlers answer 503 for upload endpoints in that case.
type Config struct {
	Bucket    string
	Region    string
	AccessID  string
	SecretKey string
}

// Uploader writes objects to one bucket.
type Uploader struct {
	cfg    aws.Config
	bucket string
	region string
}

// NewUploader builds an uploader, or nil when no bucket is configured.
func NewUploader(ctx context.Context, c Config) (*Uploader, error) {
	if c.Bucket == "" {
		logrus.Warn("no object storage bucket configured, uploads disabled")
		return nil, nil
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessID, c.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load object storage config: %w", err)
	}
	return &Uploader{cfg: cfg, bucket: c.Bucket, region: c.Region}, nil
}

// Upload stores the object under key and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	client := s3.NewFromConfig(u.cfg)
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return u.PublicURL(key), nil
}

// Delete removes the object, best effort.
func (u *Uploader) Delete(ctx context.Context, key string) {
	client := s3.NewFromConfig(u.cfg)
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("object delete failed")
	}
}

// PublicURL returns the virtual-hosted URL for a key.
func (u *Uploader) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
