package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"docint/config"
	"docint/internal/ingest"
	"docint/internal/pipeline"
	"docint/internal/retrieval"
	"docint/internal/store"
	"docint/internal/telemetry"
	"docint/provider"
)

// Run wires all shared dependencies once at startup and serves the HTTP API.
// The retrieval index and the provider clients live for the process lifetime
// and are shared across requests; pipeline state is per-request.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	ctx := context.Background()

	llmProvider, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	tele := telemetry.NewTelemetry(cfg.Telemetry)
	orch := pipeline.NewOrchestrator(llmProvider, cfg.Pipeline, tele)

	index := retrieval.NewIndex()
	if err := index.EnsureCollection(cfg.Retrieval.Collection, cfg.Retrieval.Dimension); err != nil {
		return err
	}

	// Redis is optional; without it the embedding cache is simply off.
	var rdb *redis.Client
	if cfg.Storage.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			baseLogger.Printf("redis unavailable, embedding cache disabled: %v", err)
			rdb = nil
		}
	}
	embedder := retrieval.NewEmbedder(llmProvider, rdb, cfg.LLM.EmbeddingModel, cfg.Retrieval.Dimension, cfg.Storage.Redis.CacheTTL)

	querySvc := retrieval.NewQueryService(embedder, index, llmProvider, cfg.Retrieval.Collection, cfg.Retrieval.TopK, tele)

	// Postgres is optional; when configured, migrations run at startup.
	var st *store.Store
	if dsn := cfg.Storage.Postgres.DSN(); dsn != "" {
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		st, err = store.NewWithDSN(ctx, dsn)
		if err != nil {
			return err
		}
	}

	pdfSvc := ingest.NewPDFService()
	ah := &AnalyzeHandler{
		Rasterizer:          pdfSvc,
		Extractor:           pdfSvc,
		OCR:                 ingest.NewTesseractEngine(cfg.Ingest.OCRLanguages),
		Layout:              ingest.NewHTTPLayoutDetector(cfg.Ingest.LayoutEndpoint, cfg.Ingest.LayoutTimeout),
		Pipeline:            orch,
		Embedder:            embedder,
		Index:               index,
		Chunker:             retrieval.NewFixedChunker(cfg.Retrieval.ChunkSize),
		Store:               st,
		Telemetry:           tele,
		Collection:          cfg.Retrieval.Collection,
		MinDigitalTextChars: cfg.Ingest.MinDigitalTextChars,
		Logger:              log.New(log.Writer(), "[ANALYZE] ", log.LstdFlags),
	}
	qh := &QueryHandler{Svc: querySvc}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(tele.Handler()))

	api := e.Group("/api")
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	ah.Register(api)
	qh.Register(api)

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
