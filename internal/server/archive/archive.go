// Package archive exports login ledger rows to S3-compatible object storage
// before they are purged.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/google/uuid"
)

type Archiver interface {
	// Archive stores attempts and returns the location written to.
	Archive(ctx context.Context, attempts []*models.LoginAttempt, at time.Time) (string, error)
}

// Discard keeps nothing. Used when archiving is disabled.
type Discard struct{}

func (Discard) Archive(context.Context, []*models.LoginAttempt, time.Time) (string, error) {
	return "", nil
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// S3Archiver writes one JSON Lines object per purge.
type S3Archiver struct {
	client putObjectAPI
	bucket string
}

func NewS3Archiver(ctx context.Context, c S3Config) (*S3Archiver, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Archiver{client: client, bucket: c.Bucket}, nil
}

// ObjectKey is login-attempts/YYYY/MM/DD/<uuid>.jsonl for the purge time.
func ObjectKey(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("login-attempts/%04d/%02d/%02d/%s.jsonl", at.Year(), at.Month(), at.Day(), uuid.New())
}

type record struct {
	ID         int64     `json:"id"`
	AccountID  *int64    `json:"account_id"`
	Email      string    `json:"email"`
	ResultCode string    `json:"result_code"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a *S3Archiver) Archive(ctx context.Context, attempts []*models.LoginAttempt, at time.Time) (string, error) {
	if len(attempts) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range attempts {
		if err := enc.Encode(record{
			ID:         row.ID,
			AccountID:  row.AccountID,
			Email:      row.Email,
			ResultCode: string(row.ResultCode),
			CreatedAt:  row.CreatedAt,
		}); err != nil {
			return "", err
		}
	}

	key := ObjectKey(at)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	return "s3://" + a.bucket + "/" + key, nil
}
