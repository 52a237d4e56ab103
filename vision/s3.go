package vision

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// PutObjectAPI is the subset of the S3 client used here.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads meal photos to a bucket.
type S3Store struct {
	client        PutObjectAPI
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// NewS3Store returns a store for bucket. Uploaded objects are addressed
// under publicBaseURL, or the bucket's virtual-hosted URL when it is empty.
func NewS3Store(client PutObjectAPI, bucket, region, publicBaseURL string) *S3Store {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Upload stores img under meal-photos/<userID>/ and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, userID string, img Image) (string, error) {
	key := fmt.Sprintf("meal-photos/%s/%d%s", userID, s.now().UnixNano(), img.Ext())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.publicBaseURL + "/" + key, nil
}
