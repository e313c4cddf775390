package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"docint/provider"
)

const defaultValidationNotes = "No notes provided."

// ValidationStage scores the fused narrative and packages the deliverable.
// It is the one place where a failure becomes caller-visible as an error
// marker rather than degraded text.
type ValidationStage struct {
	provider     provider.Provider
	logger       *log.Logger
	fusionChars  int
	insightChars int
}

func NewValidationStage(p provider.Provider, fusionChars, insightChars int) *ValidationStage {
	if fusionChars <= 0 {
		fusionChars = 1000
	}
	if insightChars <= 0 {
		insightChars = 500
	}
	return &ValidationStage{
		provider:     p,
		logger:       log.New(log.Writer(), "[VALIDATION] ", log.LstdFlags),
		fusionChars:  fusionChars,
		insightChars: insightChars,
	}
}

// Run writes ConfidenceScore, ValidationNotes and FinalResult. The model must
// answer with a JSON object carrying exactly confidence_score and
// validation_notes; anything unparseable forces confidence 0.0 and the error
// marker deliverable.
func (s *ValidationStage) Run(ctx context.Context, st *State) {
	prompt := fmt.Sprintf(`You are a validation stage. Your job is to assess the quality and coherence of the document analysis.

Fusion Result: %s...
Vision Insights: %s...
Text Insights: %s...

Task:
1. Rate your confidence in the fusion result on a scale of 0.0 to 1.0.
2. Provide a brief explanation for the score.
3. Return ONLY a JSON object with keys: "confidence_score" (float) and "validation_notes" (string).`,
		truncate(st.FusionNarrative.Text, s.fusionChars),
		truncate(st.VisionInsight.Text, s.insightChars),
		truncate(st.TextInsight.Text, s.insightChars))

	raw, err := s.provider.Complete(ctx, "", prompt)
	if err != nil {
		s.fail(st, fmt.Errorf("validation model call failed: %w", err))
		return
	}

	var parsed struct {
		ConfidenceScore *float64 `json:"confidence_score"`
		ValidationNotes *string  `json:"validation_notes"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		s.fail(st, fmt.Errorf("failed to parse validation response: %w", err))
		return
	}

	// Absent fields fall back to fixed defaults. An out-of-range confidence
	// passes through unclamped; the score contract is on the model.
	confidence := 0.5
	if parsed.ConfidenceScore != nil {
		confidence = *parsed.ConfidenceScore
	}
	notes := defaultValidationNotes
	if parsed.ValidationNotes != nil {
		notes = *parsed.ValidationNotes
	}

	st.ConfidenceScore = confidence
	st.ValidationNotes = notes
	st.FinalResult = &Deliverable{
		Summary:    st.FusionNarrative.Text,
		Confidence: confidence,
		Notes:      notes,
	}
}

func (s *ValidationStage) fail(st *State, err error) {
	s.logger.Printf("source %s: %v", st.SourceID, err)
	st.ConfidenceScore = 0.0
	st.ValidationNotes = "Validation error: " + err.Error()
	st.FinalResult = &Deliverable{Error: err.Error()}
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
