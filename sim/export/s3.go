package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/dispatchsim/dispatchsim/sim/report"
)

// PutObjectAPI is the part of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds a client from the default AWS credential chain.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// S3Uploader stores rendered reports under <prefix>/<runID>/report.<ext>.
type S3Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func NewS3Uploader(client PutObjectAPI, bucket, prefix string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a run's report.
func (u *S3Uploader) Key(runID string, format report.Format) string {
	return path.Join(u.prefix, runID, "report."+format.Extension())
}

// Upload puts body and returns the s3:// URI it was written to.
func (u *S3Uploader) Upload(ctx context.Context, runID string, format report.Format, body []byte) (string, error) {
	key := u.Key(runID, format)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(format.ContentType()),
		Metadata:    map[string]string{"run-id": runID},
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload report to s3://%s/%s: %w", u.bucket, key, err)
	}
	uri := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	logrus.Infof("uploaded report to %s (%d bytes)", uri, len(body))
	return uri, nil
}
