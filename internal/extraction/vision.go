package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// Vision implements the TextExtractor interface using the Google Vision API
type Vision struct {
	svc *vision.Service
}

// NewVision creates a new Vision text extractor. credentialsJSON is the
// service-account key fetched once at startup; pass nil to fall back to
// application default credentials.
func NewVision(credentialsJSON []byte) (*Vision, error) {
	ctx := context.Background()
	var opts []option.ClientOption
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}

	return &Vision{svc: svc}, nil
}

// DetectText runs document text detection on an image
func (v *Vision) DetectText(image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}

	resp, err := v.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotating image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("empty vision response")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return "", fmt.Errorf("vision api: %s", annotation.Error.Message)
	}
	if annotation.FullTextAnnotation == nil {
		return "", nil
	}
	return annotation.FullTextAnnotation.Text, nil
}

// Close closes the Vision client (no-op for the REST client)
func (v *Vision) Close() error {
	return nil
}
