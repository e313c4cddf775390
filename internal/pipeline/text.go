package pipeline

import (
	"context"
	"log"

	"docint/provider"
)

const textSystemPrompt = "You are an expert document analyst. Summarize the following text and extract key entities."

// TextStage summarizes the extracted document text and pulls out key entities.
type TextStage struct {
	provider provider.Provider
	logger   *log.Logger
	maxChars int
}

func NewTextStage(p provider.Provider, maxChars int) *TextStage {
	if maxChars <= 0 {
		maxChars = 100000
	}
	return &TextStage{
		provider: p,
		logger:   log.New(log.Writer(), "[TEXT] ", log.LstdFlags),
		maxChars: maxChars,
	}
}

// Run writes TextInsight. The input is truncated to maxChars to respect model
// context limits. A model failure is contained as a degraded insight.
func (s *TextStage) Run(ctx context.Context, st *State) {
	if st.RawText == "" {
		st.TextInsight = Insight{Text: NoTextSentinel}
		return
	}

	out, err := s.provider.Complete(ctx, textSystemPrompt, truncate(st.RawText, s.maxChars))
	if err != nil {
		s.logger.Printf("source %s: text model call failed: %v", st.SourceID, err)
		st.TextInsight = Insight{
			Text:     "Error in text stage: " + err.Error(),
			Degraded: true,
			Reason:   err.Error(),
		}
		return
	}
	st.TextInsight = Insight{Text: out}
}

// truncate bounds s to at most n bytes.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
