package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"docint/internal/ingest"
	"docint/internal/pipeline"
	"docint/internal/retrieval"
	"docint/internal/store"
	"docint/internal/telemetry"
)

// AnalyzeHandler owns the document upload path: ingestion, the analysis
// pipeline, and indexing of the results for later querying.
type AnalyzeHandler struct {
	Rasterizer ingest.Rasterizer
	Extractor  ingest.TextExtractor
	OCR        ingest.OCREngine
	Layout     ingest.LayoutDetector

	Pipeline  *pipeline.Orchestrator
	Embedder  *retrieval.Embedder
	Index     *retrieval.Index
	Chunker   *retrieval.FixedChunker
	Store     *store.Store // nil when persistence is not configured
	Telemetry *telemetry.Telemetry

	Collection          string
	MinDigitalTextChars int

	Logger *log.Logger
}

func (h *AnalyzeHandler) Register(g *echo.Group) {
	g.POST("/analyze", h.analyze)
	g.GET("/analyses", h.listAnalyses)
}

// analyze ingests a PDF, runs the pipeline and indexes the outcome. The
// deliverable is always structured: either {summary, confidence, notes} or
// the {error} marker.
func (h *AnalyzeHandler) analyze(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return echo.NewHTTPError(http.StatusBadRequest, "Only PDF files are supported.")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}

	ctx := c.Request().Context()

	images, err := h.Rasterizer.Rasterize(ctx, data)
	if err != nil {
		h.Logger.Printf("rasterization failed for %s: %v", fileHeader.Filename, err)
	}
	if len(images) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not process PDF.")
	}

	// Layout detection is advisory; a failure degrades to no layout input.
	var layout []ingest.LayoutElement
	if h.Layout != nil {
		layout, err = h.Layout.DetectLayout(ctx, images[0])
		if err != nil {
			h.Logger.Printf("layout detection failed for %s: %v", fileHeader.Filename, err)
			layout = nil
		}
	}

	rawText := h.extractText(ctx, fileHeader.Filename, data, images)

	st := &pipeline.State{
		SourceID:       fileHeader.Filename,
		PageImages:     images,
		DetectedLayout: layout,
		RawText:        rawText,
	}
	result := h.Pipeline.Analyze(ctx, st)

	h.indexResult(ctx, fileHeader.Filename, result, rawText)
	h.persist(ctx, fileHeader.Filename, result)

	if result.IsError() {
		return c.JSON(http.StatusOK, map[string]string{"error": result.Error})
	}
	return c.JSON(http.StatusOK, AnalyzeResponse{
		Summary:    result.Summary,
		Confidence: result.Confidence,
		Notes:      result.Notes,
	})
}

// extractText prefers the digital text layer; anything at or below the
// configured threshold is treated as a scanned document and OCR runs on every
// page, joined per page.
func (h *AnalyzeHandler) extractText(ctx context.Context, name string, pdf []byte, images [][]byte) string {
	text, err := h.Extractor.ExtractText(ctx, pdf)
	if err != nil {
		h.Logger.Printf("direct text extraction failed for %s: %v", name, err)
		text = ""
	}
	if len(text) > h.MinDigitalTextChars {
		h.Logger.Printf("%s: using digital text layer (%d chars)", name, len(text))
		return text
	}

	h.Logger.Printf("%s: no usable text layer, running OCR on %d pages", name, len(images))
	pages := make([]string, 0, len(images))
	for i, img := range images {
		pageText, err := h.OCR.Recognize(ctx, img)
		if err != nil {
			h.Logger.Printf("%s: OCR failed on page %d: %v", name, i+1, err)
			continue
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n\n")
}

// indexResult stores the summary and the raw text chunks for retrieval.
// Indexing failures are logged and never fail the request.
func (h *AnalyzeHandler) indexResult(ctx context.Context, sourceID string, result *pipeline.Deliverable, rawText string) {
	added := 0
	if !result.IsError() && result.Summary != "" {
		vec := h.Embedder.Embed(ctx, result.Summary)
		if _, err := h.Index.Add(h.Collection, retrieval.Chunk{
			SourceID: sourceID,
			Kind:     retrieval.KindSummary,
			Text:     result.Summary,
			Vector:   vec,
		}); err != nil {
			h.Logger.Printf("failed to index summary for %s: %v", sourceID, err)
		} else {
			added++
		}
	}

	for _, piece := range h.Chunker.Chunk(rawText) {
		vec := h.Embedder.Embed(ctx, piece.Text)
		if _, err := h.Index.Add(h.Collection, retrieval.Chunk{
			SourceID: sourceID,
			Kind:     retrieval.KindRawText,
			Offset:   piece.Offset,
			Text:     piece.Text,
			Vector:   vec,
		}); err != nil {
			h.Logger.Printf("failed to index chunk at %d for %s: %v", piece.Offset, sourceID, err)
			continue
		}
		added++
	}

	if h.Telemetry != nil && added > 0 {
		h.Telemetry.AddChunks(added)
	}
	h.Logger.Printf("%s: indexed %d chunks", sourceID, added)
}

// persist saves the deliverable when Postgres is configured. Failures are
// logged only; persistence never blocks the response.
func (h *AnalyzeHandler) persist(ctx context.Context, sourceID string, result *pipeline.Deliverable) {
	if h.Store == nil {
		return
	}
	_, err := h.Store.SaveAnalysis(ctx, store.Analysis{
		SourceID:   sourceID,
		Summary:    result.Summary,
		Confidence: result.Confidence,
		Notes:      result.Notes,
		Error:      result.Error,
	})
	if err != nil {
		h.Logger.Printf("failed to persist analysis for %s: %v", sourceID, err)
	}
}

func (h *AnalyzeHandler) listAnalyses(c echo.Context) error {
	if h.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "persistence not configured")
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	analyses, err := h.Store.RecentAnalyses(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"analyses": analyses})
}
