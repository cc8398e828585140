package bucket

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

const DefaultRegion = "ap-northeast-1"

// PutObjectAPI is the slice of the S3 client the publisher needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Settings struct {
	Bucket string
	Prefix string
	Region string
}

// Publisher uploads rendered report files to a bucket.
type Publisher struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func NewPublisher(client PutObjectAPI, bucket, prefix string) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Publisher builds a publisher from the default AWS credential chain.
func NewS3Publisher(ctx context.Context, settings Settings) (*Publisher, error) {
	if settings.Bucket == "" {
		return nil, fmt.Errorf("publish bucket is not configured")
	}
	region := settings.Region
	if region == "" {
		region = DefaultRegion
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithDefaultRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewPublisher(s3.NewFromConfig(awsCfg), settings.Bucket, settings.Prefix), nil
}

// Key is the object key a local file is published under.
func (p *Publisher) Key(localPath string) string {
	return path.Join(p.prefix, filepath.Base(localPath))
}

// Publish uploads the file and returns its s3:// location.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", localPath, err)
	}

	key := p.Key(localPath)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        awssdk.String(p.bucket),
		Key:           awssdk.String(key),
		Body:          f,
		ContentLength: awssdk.Int64(info.Size()),
		ContentType:   awssdk.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to s3://%s/%s: %w", localPath, p.bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", p.bucket, key)
	zerolog.Ctx(ctx).Info().
		Str("location", location).
		Str("size", humanize.Bytes(uint64(info.Size()))).
		Msg("report published")
	return location, nil
}

func contentType(p string) string {
	ext := strings.ToLower(filepath.Ext(p))
	if ext == ".html" {
		return "text/html; charset=utf-8"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
