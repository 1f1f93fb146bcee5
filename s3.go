package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	log "github.com/sirupsen/logrus"

	"github.com/gmllt/kanvan/board"
)

const s3Timeout = 10 * time.Second

// Repository persists the ambient card sequence as one list of records.
type Repository interface {
	Load(ctx context.Context) ([]board.Card, error)
	Save(ctx context.Context, cards []board.Card) error
}

// objectAPI is the part of *s3.Client the repository needs.
type objectAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client initializes an S3 client using the provided configuration.
// It is compatible with MinIO and other S3-compatible services.
func NewS3Client(cfg S3Config) (*s3.Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		return nil, errors.New("S3 endpoint is required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid S3 endpoint: %w", err)
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.DisableChecksum {
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	}), nil
}

type S3Repository struct {
	client objectAPI
	bucket string
	key    string
}

func NewS3Repository(client objectAPI, cfg S3Config) *S3Repository {
	key := cfg.Key
	if key == "" {
		key = "tasks.json"
	}
	return &S3Repository{client: client, bucket: cfg.Bucket, key: key}
}

func (r *S3Repository) EnsureBucketExists(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s3Timeout)
	defer cancel()
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
			return fmt.Errorf("bucket %s does not exist", r.bucket)
		}
		return fmt.Errorf("error checking bucket: %w", err)
	}
	return nil
}

func (r *S3Repository) Load(ctx context.Context) ([]board.Card, error) {
	ctx, cancel := context.WithTimeout(ctx, s3Timeout)
	defer cancel()
	resp, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			log.Debugf("%s not found on S3, returning empty board", r.key)
			return []board.Card{}, nil
		}
		return nil, fmt.Errorf("error loading tasks from S3: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading tasks data: %w", err)
	}
	cards := []board.Card{}
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("error decoding tasks json: %w", err)
	}
	return cards, nil
}

func (r *S3Repository) Save(ctx context.Context, cards []board.Card) error {
	ctx, cancel := context.WithTimeout(ctx, s3Timeout)
	defer cancel()
	data, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("error encoding tasks json: %w", err)
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error saving tasks to S3: %w", err)
	}
	return nil
}
