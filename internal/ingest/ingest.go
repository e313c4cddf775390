// Package ingest wraps the external document collaborators: PDF rasterization
// and text extraction, OCR, and layout detection. The analysis core consumes
// only the interfaces defined here.
package ingest

import "context"

// LayoutElement is a single detected layout region on a page image.
type LayoutElement struct {
	Type       string     `json:"type"`
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

// Rasterizer converts a PDF into ordered JPEG-encoded page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}

// TextExtractor pulls the embedded text layer out of a digital PDF.
// An empty string signals "not a digital PDF" and triggers the OCR fallback.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// OCREngine recognizes text in a single page image.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// LayoutDetector finds layout regions in a page image.
type LayoutDetector interface {
	DetectLayout(ctx context.Context, image []byte) ([]LayoutElement, error)
}
