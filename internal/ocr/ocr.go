// Package ocr is the text-recognition boundary. The extraction engine
// treats OCR as a black box that turns an image into a string; this
// package defines that contract and ships a Google Cloud Vision adapter.
package ocr

import "context"

// Recognizer extracts raw text from a PNG image.
type Recognizer interface {
	// Recognize returns the recognized text, top-to-bottom as rendered.
	// An image with no readable text yields an empty string, not an error.
	Recognize(ctx context.Context, pngData []byte) (string, error)

	// Close closes the recognizer and releases resources.
	Close() error
}
