package service

import (
	"context"
	"strings"
	"time"

	appconfig "github.com/vibast-solutions/ms-go-clubs/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ProfilePictureResolver turns a stored object key into a URL a browser can load.
type ProfilePictureResolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// NewProfilePictureResolver presigns keys against S3 when a bucket is configured.
// Without one, stored values are returned unchanged.
func NewProfilePictureResolver(ctx context.Context, cfg appconfig.StorageConfig) (ProfilePictureResolver, error) {
	if !cfg.Enabled() {
		return PassthroughResolver{}, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3Resolver(s3.NewPresignClient(client), cfg.Bucket, cfg.PresignTTL), nil
}

type PassthroughResolver struct{}

func (PassthroughResolver) Resolve(_ context.Context, key string) (string, error) {
	return key, nil
}

type presignGetter interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Resolver struct {
	presigner presignGetter
	bucket    string
	ttl       time.Duration
}

func NewS3Resolver(presigner presignGetter, bucket string, ttl time.Duration) *S3Resolver {
	return &S3Resolver{presigner: presigner, bucket: bucket, ttl: ttl}
}

// Resolve presigns a GET for key. Absolute URLs are returned as stored.
func (r *S3Resolver) Resolve(ctx context.Context, key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key, nil
	}

	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
