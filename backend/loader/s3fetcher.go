package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/common/logger"
)

type S3Config struct {
	Bucket          string
	Region          string
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
}

func (s S3Config) IsEnabled() bool {
	return s.Bucket != ""
}

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher reads remote files from an S3 compatible bucket. The object key
// is derived from the location.
type S3Fetcher struct {
	client s3API
	bucket string
}

var _ api.Fetcher = (*S3Fetcher)(nil)

func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 bucket not configured")
	}
	options := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		options = append(options, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})
	logger.Info.Printf("Fetching remote files from S3 bucket %s", cfg.Bucket)
	return newS3Fetcher(client, cfg.Bucket), nil
}

func newS3Fetcher(client s3API, bucket string) *S3Fetcher {
	return &S3Fetcher{
		client: client,
		bucket: bucket,
	}
}

func (s *S3Fetcher) Fetch(ctx context.Context, request *api.LoadRequest, progress func(offset int, total int)) ([]byte, error) {
	if request.Geo == nil && !request.Location.Valid() {
		return nil, api.ErrUnsupportedLocation
	}
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(request.ObjectKey()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, request.ObjectKey(), err)
	}
	defer output.Body.Close()

	total := request.Size
	if output.ContentLength != nil {
		total = int(*output.ContentLength)
	}
	return readChunks(ctx, output.Body, total, progress)
}

// ChainFetcher asks each fetcher in turn until one supports the location.
type ChainFetcher []api.Fetcher

func (s ChainFetcher) Fetch(ctx context.Context, request *api.LoadRequest, progress func(offset int, total int)) ([]byte, error) {
	for _, fetcher := range s {
		bytes, err := fetcher.Fetch(ctx, request, progress)
		if errors.Is(err, api.ErrUnsupportedLocation) {
			continue
		}
		return bytes, err
	}
	return nil, api.ErrUnsupportedLocation
}
