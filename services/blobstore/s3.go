package blobsvc

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/colegia/backend/core"
)

// S3Storage stores uploaded documents in a single S3 bucket; object keys are
// "<folderHint>/<uuid>-<name>".
type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

var _ core.BlobStorage = (*S3Storage)(nil)

func NewS3Storage(ctx context.Context, conf *core.Config) (*S3Storage, error) {
	if conf.BlobStore.Bucket == "" {
		return nil, errors.New("blob store bucket required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(conf.BlobStore.Region),
	}
	if conf.BlobStore.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.BlobStore.AccessKey, conf.BlobStore.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if conf.BlobStore.BaseURL != "" {
			o.BaseEndpoint = aws.String(conf.BlobStore.BaseURL)
			o.UsePathStyle = true
		}
	})

	baseURL := conf.BlobStore.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", conf.BlobStore.Bucket, conf.BlobStore.Region)
	} else {
		baseURL = strings.TrimRight(baseURL, "/") + "/" + conf.BlobStore.Bucket
	}
	return &S3Storage{client: client, bucket: conf.BlobStore.Bucket, baseURL: baseURL}, nil
}

func (s *S3Storage) Store(ctx context.Context, data []byte, folderHint, name string) (string, error) {
	key := path.Join(folderHint, uuid.New().String()+"-"+name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", errors.Wrap(err, "putting object")
	}
	return s.baseURL + "/" + key, nil
}
