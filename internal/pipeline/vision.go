package pipeline

import (
	"context"
	"log"

	"docint/provider"
)

const visionInstruction = "Analyze this document image. Describe any tables, charts, or diagrams you see in detail. Ignore standard text if possible, focus on visual elements and layout structure."

// VisionStage describes the visual structure of the first page image.
type VisionStage struct {
	provider provider.Provider
	logger   *log.Logger
}

func NewVisionStage(p provider.Provider) *VisionStage {
	return &VisionStage{provider: p, logger: log.New(log.Writer(), "[VISION] ", log.LstdFlags)}
}

// Run writes VisionInsight. Only the first page is analyzed; the detected
// layout is advisory context for operators and is not sent to the model.
// A model failure is contained as a degraded insight, never an error.
func (s *VisionStage) Run(ctx context.Context, st *State) {
	if len(st.PageImages) == 0 {
		st.VisionInsight = Insight{Text: NoImagesSentinel}
		return
	}
	if len(st.DetectedLayout) > 0 {
		s.logger.Printf("source %s: %d layout elements detected on first page", st.SourceID, len(st.DetectedLayout))
	}

	out, err := s.provider.CompleteVision(ctx, visionInstruction, st.PageImages[0])
	if err != nil {
		s.logger.Printf("source %s: vision model call failed: %v", st.SourceID, err)
		st.VisionInsight = Insight{
			Text:     "Error in vision stage: " + err.Error(),
			Degraded: true,
			Reason:   err.Error(),
		}
		return
	}
	st.VisionInsight = Insight{Text: out}
}
