// Package storage stores uploaded content files in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"pecommunity/internal/config"
	"pecommunity/internal/validation"
)

// Client uploads objects to the content bucket.
type Client struct {
	s3        *s3.S3
	bucket    string
	publicURL string
}

// NewClient builds an S3 client from config. No network calls are made.
func NewClient(cfg *config.Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")
	}

	// MinIO and other S3-compatible servers
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		awsConfig.DisableSSL = aws.Bool(!cfg.S3UseSSL)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Client{
		s3:        s3.New(sess),
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimSuffix(cfg.S3PublicURL, "/"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.s3.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	if _, err := c.s3.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}
	return nil
}

// Upload stores body under key and returns its public URL.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	buf, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := c.s3.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return c.PublicURL(key), nil
}

// Delete removes the object at key.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PublicURL returns the URL under which key is publicly readable.
func (c *Client) PublicURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}

	endpoint := aws.StringValue(c.s3.Config.Endpoint)
	if endpoint != "" && !strings.Contains(endpoint, "amazonaws.com") {
		protocol := "https"
		if aws.BoolValue(c.s3.Config.DisableSSL) {
			protocol = "http"
		}
		endpoint = strings.TrimPrefix(endpoint, "http://")
		endpoint = strings.TrimPrefix(endpoint, "https://")
		return fmt.Sprintf("%s://%s/%s/%s", protocol, strings.TrimSuffix(endpoint, "/"), c.bucket, key)
	}

	region := aws.StringValue(c.s3.Config.Region)
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, region, key)
}

// ObjectKey builds the storage path for an upload:
// {stageID}/{categoryID}/{random}.{ext}
func ObjectKey(stageID, categoryID, filename string) string {
	return fmt.Sprintf("%s/%s/%s.%s", stageID, categoryID, uuid.NewString(), validation.FileExtension(filename))
}
