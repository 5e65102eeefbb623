package ocr

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// maxImageBytes is the size cap for a single annotate request.
const maxImageBytes = 20 * 1024 * 1024

// Vision implements the Recognizer interface using Google Cloud Vision.
type Vision struct {
	client *vision.ImageAnnotatorClient
}

// NewVision creates a Vision recognizer. Credentials resolve from
// GOOGLE_CREDENTIALS (inline JSON), GOOGLE_APPLICATION_CREDENTIALS
// (file path), or application default credentials, in that order.
func NewVision(ctx context.Context) (*Vision, error) {
	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("creating vision client: %w", err)
	}

	return &Vision{client: client}, nil
}

// Recognize runs document text detection on a PNG image and returns the
// full recognized text.
func (v *Vision) Recognize(ctx context.Context, pngData []byte) (string, error) {
	if len(pngData) == 0 {
		return "", fmt.Errorf("empty image data")
	}
	if len(pngData) > maxImageBytes {
		return "", fmt.Errorf("image too large: %d bytes", len(pngData))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: pngData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("annotating image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("no response from vision API")
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("vision API error: %s", r.Error.GetMessage())
	}
	if r.FullTextAnnotation == nil {
		// No readable text; the caller treats this as an empty result.
		return "", nil
	}
	return r.FullTextAnnotation.GetText(), nil
}

// Close closes the underlying Vision client.
func (v *Vision) Close() error {
	return v.client.Close()
}
