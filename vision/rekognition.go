package vision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

const (
	maxLabels     = 5
	minConfidence = 75
)

// LabelsAPI is the subset of the Rekognition client used here.
type LabelsAPI interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type RekognitionLabeler struct {
	client LabelsAPI
}

func NewRekognitionLabeler(client LabelsAPI) *RekognitionLabeler {
	return &RekognitionLabeler{client: client}
}

// DetectLabels returns up to five labels with at least 75% confidence, most
// confident first.
func (r *RekognitionLabeler) DetectLabels(ctx context.Context, img Image) ([]Label, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: img.Data},
		MaxLabels:     aws.Int32(maxLabels),
		MinConfidence: aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	labels := make([]Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		name := aws.ToString(l.Name)
		if name == "" {
			continue
		}
		labels = append(labels, Label{Name: name, Confidence: float64(aws.ToFloat32(l.Confidence))})
	}
	return labels, nil
}
