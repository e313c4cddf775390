package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PDFService rasterizes PDFs and extracts their embedded text layer via MuPDF.
// It implements both Rasterizer and TextExtractor.
type PDFService struct {
	logger *log.Logger
}

func NewPDFService() *PDFService {
	return &PDFService{logger: log.New(log.Writer(), "[PDF] ", log.LstdFlags)}
}

// Rasterize renders every page of the PDF to a JPEG image. A broken document
// yields an empty slice and the error; callers treat empty as "could not
// process".
func (s *PDFService) Rasterize(ctx context.Context, pdf []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	images := make([][]byte, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		img, err := doc.Image(n)
		if err != nil {
			s.logger.Printf("rasterize page %d failed: %v", n+1, err)
			continue
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			s.logger.Printf("encode page %d failed: %v", n+1, err)
			continue
		}
		images = append(images, buf.Bytes())
	}
	return images, nil
}

// ExtractText attempts direct text extraction from the PDF's text layer.
// Returns an empty string when the document carries no usable text layer.
func (s *PDFService) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		text, err := doc.Text(n)
		if err != nil {
			s.logger.Printf("extract text page %d failed: %v", n+1, err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
