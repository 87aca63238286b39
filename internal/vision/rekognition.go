// Package vision detects image labels with Amazon Rekognition.
package vision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"

	"github.com/photo-search/internal/labels"
	"github.com/photo-search/internal/photo"
)

// Rekognition detects labels on images stored in S3.
type Rekognition struct {
	client rekognitioniface.RekognitionAPI
}

// NewRekognition wraps client.
func NewRekognition(client rekognitioniface.RekognitionAPI) *Rekognition {
	return &Rekognition{client: client}
}

// DetectLabels runs label detection on the object in place.
func (r *Rekognition) DetectLabels(ctx context.Context, loc photo.Locator, maxLabels int, minConfidence float64) ([]labels.Detected, error) {
	out, err := r.client.DetectLabelsWithContext(ctx, &rekognition.DetectLabelsInput{
		Image: &rekognition.Image{
			S3Object: &rekognition.S3Object{
				Bucket: aws.String(loc.Bucket),
				Name:   aws.String(loc.Key),
			},
		},
		MaxLabels:     aws.Int64(int64(maxLabels)),
		MinConfidence: aws.Float64(minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels %s: %w", loc, err)
	}

	found := make([]labels.Detected, 0, len(out.Labels))
	for _, l := range out.Labels {
		found = append(found, labels.Detected{
			Name:       aws.StringValue(l.Name),
			Confidence: aws.Float64Value(l.Confidence),
		})
	}
	return found, nil
}
