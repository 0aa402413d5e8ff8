package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxSecretObjectSize bounds how much of the S3 object is read.
const maxSecretObjectSize = 4096

// S3Config locates the secret object in an S3-compatible store.
type S3Config struct {
	Bucket   string
	Key      string
	Region   string
	Endpoint string
	User     string
	Password string
}

// s3GetObjectAPI is the part of *s3.Client the key source needs.
type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3Client = func(cfg aws.Config, optFns ...func(*s3.Options)) s3GetObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3KeySource reads the signing secret from an object. Static credentials
// are used when User is set, otherwise the default AWS chain applies.
type S3KeySource struct {
	cfg S3Config
}

func NewS3KeySource(cfg S3Config) *S3KeySource {
	return &S3KeySource{cfg: cfg}
}

func (s *S3KeySource) client(ctx context.Context) (s3GetObjectAPI, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.cfg.Region)}
	if s.cfg.User != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.User, s.cfg.Password, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return newS3Client(awsCfg, func(o *s3.Options) {
		if s.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3KeySource) Load(ctx context.Context) ([]byte, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.cfg.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.cfg.Bucket, s.cfg.Key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxSecretObjectSize))
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(b), nil
}
