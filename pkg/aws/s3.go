package aws

import (
	"bytes"
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectUploader stores small JSON documents.
type ObjectUploader interface {
	PutJSON(ctx context.Context, key string, body []byte) error
}

// S3Archive writes objects into a single bucket through the multipart-aware
// upload manager.
type S3Archive struct {
	uploader *manager.Uploader
	bucket   string
}

func NewS3Archive(cfg sdkaws.Config, bucket string) *S3Archive {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// LocalStack serves buckets on the path, not as a subdomain.
		o.UsePathStyle = localEndpoint() != ""
	})
	return &S3Archive{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}
}

func (a *S3Archive) PutJSON(ctx context.Context, key string, body []byte) error {
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      sdkaws.String(a.bucket),
		Key:         sdkaws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: sdkaws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}
