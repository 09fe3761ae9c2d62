package submissions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/server/config"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
)

// ObjectAPI is the part of *s3.Client used by S3Repository.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

const s3Prefix = "submissions/"

// S3Repository stores each submission as its own JSON object. Keys embed
// the creation date and a zero-padded nanosecond timestamp so that the
// lexical listing order is the insertion order.
type S3Repository struct {
	client ObjectAPI
	bucket string
}

func NewS3Repository(client ObjectAPI, bucket string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket}
}

func objectKey(s *models.Submission) string {
	d := s.CreatedAt.UTC()
	return fmt.Sprintf("%s%04d/%02d/%02d/%020d-%s.json", s3Prefix, d.Year(), d.Month(), d.Day(), d.UnixNano(), s.ID)
}

func (r *S3Repository) Save(ctx context.Context, s *models.Submission) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(objectKey(s)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 error: %w", err)
	}
	return nil
}

func (r *S3Repository) List(ctx context.Context) ([]models.Submission, error) {
	var keys []string

	p := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(s3Prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 error: %w", err)
		}
		for _, obj := range page.Contents {
			if k := aws.ToString(obj.Key); strings.HasSuffix(k, ".json") {
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)

	result := make([]models.Submission, 0, len(keys))
	for _, k := range keys {
		s, err := r.get(ctx, k)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

func (r *S3Repository) get(ctx context.Context, key string) (models.Submission, error) {
	var s models.Submission

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s, fmt.Errorf("s3 error: %w", err)
	}
	defer out.Body.Close()

	if err := json.NewDecoder(out.Body).Decode(&s); err != nil {
		return s, fmt.Errorf("%w: %s: %v", common.ErrorCorrupted, key, err)
	}
	return s, nil
}

// Seams for tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Client builds an S3 client for an S3-compatible endpoint (MinIO in
// development) with static credentials and path-style addressing.
func NewS3Client(ctx context.Context, c *config.Config) (ObjectAPI, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(c.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}
