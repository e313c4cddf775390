package pipeline

import (
	"context"
	"fmt"
	"log"

	"docint/provider"
)

// FusionStage merges the vision and text insights into one narrative.
type FusionStage struct {
	provider provider.Provider
	logger   *log.Logger
}

func NewFusionStage(p provider.Provider) *FusionStage {
	return &FusionStage{provider: p, logger: log.New(log.Writer(), "[FUSION] ", log.LstdFlags)}
}

// Run writes FusionNarrative. The upstream insights are already bounded, so no
// truncation is applied here. A model failure degrades the narrative; the
// pipeline still reaches validation.
func (s *FusionStage) Run(ctx context.Context, st *State) {
	prompt := fmt.Sprintf(`You are a fusion stage. Your task is to merge the information from the visual analysis and text analysis of a document.

Visual Insights:
%s

Text Insights:
%s

Provide a consolidated summary of the document, resolving any conflicts if present. Structure your response clearly.`,
		st.VisionInsight.Text, st.TextInsight.Text)

	out, err := s.provider.Complete(ctx, "", prompt)
	if err != nil {
		s.logger.Printf("source %s: fusion model call failed: %v", st.SourceID, err)
		st.FusionNarrative = Insight{
			Text:     "Error in fusion stage: " + err.Error(),
			Degraded: true,
			Reason:   err.Error(),
		}
		return
	}
	st.FusionNarrative = Insight{Text: out}
}
