package pipeline

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"docint/config"
	"docint/internal/telemetry"
	"docint/provider"
)

// Orchestrator wires the fixed analysis chain: vision and text insight
// generation fan out concurrently, join, then fusion and validation run in
// order. Transitions are unconditional; every stage contains its own failures,
// so a run always terminates with a structured deliverable.
type Orchestrator struct {
	vision     *VisionStage
	text       *TextStage
	fusion     *FusionStage
	validation *ValidationStage
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
}

// NewOrchestrator creates a new orchestrator instance
func NewOrchestrator(p provider.Provider, cfg config.PipelineConfig, tele *telemetry.Telemetry) *Orchestrator {
	return &Orchestrator{
		vision:     NewVisionStage(p),
		text:       NewTextStage(p, cfg.TextInsightMaxChars),
		fusion:     NewFusionStage(p),
		validation: NewValidationStage(p, cfg.ValidationFusionChars, cfg.ValidationInsightChars),
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	}
}

// Analyze runs the full chain over the given state and returns the terminal
// deliverable. The vision and text stages read disjoint inputs and write
// disjoint fields, so they run concurrently; fusion never observes a partial
// insight and validation never observes a partial narrative.
func (o *Orchestrator) Analyze(ctx context.Context, st *State) *Deliverable {
	start := time.Now()
	o.logger.Printf("source %s: starting analysis (%d pages, %d chars of text)",
		st.SourceID, len(st.PageImages), len(st.RawText))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o.step(gctx, "vision", st, o.vision.Run, func() bool { return st.VisionInsight.Degraded })
		return nil
	})
	g.Go(func() error {
		o.step(gctx, "text", st, o.text.Run, func() bool { return st.TextInsight.Degraded })
		return nil
	})
	_ = g.Wait()

	o.step(ctx, "fusion", st, o.fusion.Run, func() bool { return st.FusionNarrative.Degraded })
	o.step(ctx, "validation", st, o.validation.Run, func() bool { return st.FinalResult.IsError() })

	result := st.FinalResult
	if o.telemetry != nil {
		o.telemetry.RecordRun(!result.IsError(), time.Since(start))
	}
	o.logger.Printf("source %s: analysis done confidence=%.2f error=%q",
		st.SourceID, result.Confidence, result.Error)
	return result
}

func (o *Orchestrator) step(ctx context.Context, name string, st *State, run func(context.Context, *State), degraded func() bool) {
	start := time.Now()
	run(ctx, st)
	if o.telemetry != nil {
		o.telemetry.ObserveStage(name, time.Since(start), degraded())
	}
}
