// Package backup optionally archives run snapshots to an S3-compatible
// object store (spec §5 "Shared resources"). It is entirely optional: a
// deployment with no bucket configured simply never calls this package.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config selects the destination bucket and optional S3-compatible
// endpoint override (for R2 or MinIO rather than AWS S3 itself).
type Config struct {
	Bucket   string
	Prefix   string
	Endpoint string // empty uses the default AWS endpoint resolution
	Region   string
}

// Client uploads run snapshot files to object storage.
type Client struct {
	uploader *manager.Uploader
	cfg      Config
}

// NewClient loads AWS credentials/config from the standard chain (env,
// shared config file, instance profile) and constructs an uploader.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	optFns := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("backup: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{uploader: manager.NewUploader(client), cfg: cfg}, nil
}

// UploadSnapshot uploads one run's JSON file, keyed by prefix/basename.
func (c *Client) UploadSnapshot(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", path, err)
	}
	defer f.Close()

	key := objectKey(c.cfg.Prefix, path)
	_, err = c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("backup: upload %s: %w", key, err)
	}
	return nil
}

func objectKey(prefix, path string) string {
	return filepath.ToSlash(filepath.Join(prefix, filepath.Base(path)))
}
