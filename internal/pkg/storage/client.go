package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

const opTimeout = 30 * time.Second

// UploadResult describes a stored artwork object
type UploadResult struct {
	ObjectKey string
	Size      int64
	URL       string
}

// Uploader is the storage interface the artwork controller works against.
type Uploader interface {
	Upload(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, objectKey string) error
	PublicURL(objectKey string) string
}

// Client wraps the S3 client with artwork storage functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new S3 artwork storage client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Storage] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// testConnection checks if the bucket exists and creates it outside prod
func (c *Client) testConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.BucketName),
	})
	if err != nil {
		if GetAppEnv() != "prod" {
			log.Warnf("[Storage] Bucket %s not found, attempting to create it", c.config.BucketName)
			return c.createBucket()
		}
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}
	return nil
}

func (c *Client) createBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	input := &s3.CreateBucketInput{
		Bucket: aws.String(c.config.BucketName),
	}

	// Regions other than us-east-1 need an explicit location constraint;
	// S3-compatible endpoints do not want one at all.
	if c.config.EndpointURL == "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.config.Region),
		}
	}

	_, err := c.s3Client.CreateBucket(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.config.BucketName, err)
	}

	log.Infof("[Storage] Successfully created bucket: %s", c.config.BucketName)
	return nil
}

// Upload stores an artwork object and returns its key, size and public URL
func (c *Client) Upload(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) (*UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	return &UploadResult{
		ObjectKey: objectKey,
		Size:      size,
		URL:       c.config.PublicURL(objectKey),
	}, nil
}

// Delete removes an artwork object
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectKey, err)
	}
	return nil
}

// PublicURL returns the URL an object is served from
func (c *Client) PublicURL(objectKey string) string {
	return c.config.PublicURL(objectKey)
}
