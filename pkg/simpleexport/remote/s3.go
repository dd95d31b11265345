package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config options for the s3:// fetcher
type S3Config struct {
	Region          string // AWS region (default: us-east-1)
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
	Bucket          string // Restricts fetches to one bucket when set
}

// S3Fetcher fetches s3://bucket/key objects
type S3Fetcher struct {
	client     *s3.Client
	downloader *manager.Downloader
	bucket     string
}

// NewS3 creates an s3:// fetcher
func NewS3(ctx context.Context, config S3Config) (*S3Fetcher, error) {
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)
	return &S3Fetcher{
		client:     client,
		downloader: manager.NewDownloader(client),
		bucket:     config.Bucket,
	}, nil
}

// ParseS3URL splits s3://bucket/key
func ParseS3URL(resourceURL string) (bucket, key string, err error) {
	u, err := url.Parse(resourceURL)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errors.New("s3 url must name a bucket and a key")
	}
	return u.Host, key, nil
}

// Fetch downloads the whole object into memory
func (f *S3Fetcher) Fetch(ctx context.Context, resourceURL string) (*Resource, error) {
	bucket, key, err := ParseS3URL(resourceURL)
	if err != nil {
		return nil, &FetchError{URL: resourceURL, Err: err}
	}
	if f.bucket != "" && bucket != f.bucket {
		return nil, &FetchError{URL: resourceURL, Err: fmt.Errorf("bucket %q is not allowed", bucket)}
	}

	head, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &FetchError{URL: resourceURL, Err: classifyS3Error(err)}
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, aws.ToInt64(head.ContentLength)))
	n, err := f.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &FetchError{URL: resourceURL, Err: classifyS3Error(err)}
	}

	return &Resource{
		Body:        io.NopCloser(bytes.NewReader(buf.Bytes())),
		ContentType: aws.ToString(head.ContentType),
		Size:        n,
	}, nil
}

func classifyS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %s", ErrNotFound, apiErr.ErrorMessage())
		}
	}
	return err
}
