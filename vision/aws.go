package vision

import (
	"context"
	"fmt"

	"github.com/FloFRCD/nutrition-app-sub001/entity"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewAWS builds the Rekognition labeler and S3 store from the default AWS
// credential chain.
func NewAWS(ctx context.Context, c entity.AWSConfig) (*RekognitionLabeler, *S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(c.Region))
	if err != nil {
		return nil, nil, fmt.Errorf("load AWS config: %w", err)
	}
	labeler := NewRekognitionLabeler(rekognition.NewFromConfig(cfg))
	store := NewS3Store(s3.NewFromConfig(cfg), c.Bucket, c.Region, c.PublicBaseURL)
	return labeler, store, nil
}
