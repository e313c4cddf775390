package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func runValidation(t *testing.T, reply string, err error) *State {
	t.Helper()
	p := &fakeProvider{completeFn: func(string, string) (string, error) {
		return reply, err
	}}
	st := &State{
		SourceID:        "doc.pdf",
		VisionInsight:   Insight{Text: "vision"},
		TextInsight:     Insight{Text: "text"},
		FusionNarrative: Insight{Text: "the fused narrative"},
	}
	NewValidationStage(p, 0, 0).Run(context.Background(), st)
	if st.FinalResult == nil {
		t.Fatalf("validation must always produce a deliverable")
	}
	return st
}

func TestValidationParsesWellFormedResponse(t *testing.T) {
	st := runValidation(t, `{"confidence_score": 0.87, "validation_notes": "coherent"}`, nil)

	if st.ConfidenceScore != 0.87 {
		t.Fatalf("expected confidence 0.87, got %v", st.ConfidenceScore)
	}
	if st.ValidationNotes != "coherent" {
		t.Fatalf("unexpected notes: %q", st.ValidationNotes)
	}
	if st.FinalResult.IsError() {
		t.Fatalf("unexpected error marker: %q", st.FinalResult.Error)
	}
	if st.FinalResult.Summary != "the fused narrative" {
		t.Fatalf("summary must be the fusion narrative, got %q", st.FinalResult.Summary)
	}
}

func TestValidationStripsLanguageTaggedFence(t *testing.T) {
	st := runValidation(t, "```json\n{\"confidence_score\": 0.6, \"validation_notes\": \"ok\"}\n```", nil)
	if st.ConfidenceScore != 0.6 {
		t.Fatalf("expected confidence 0.6, got %v", st.ConfidenceScore)
	}
}

func TestValidationStripsBareFence(t *testing.T) {
	st := runValidation(t, "```\n{\"confidence_score\": 0.4, \"validation_notes\": \"ok\"}\n```", nil)
	if st.ConfidenceScore != 0.4 {
		t.Fatalf("expected confidence 0.4, got %v", st.ConfidenceScore)
	}
}

func TestValidationDefaultsForAbsentFields(t *testing.T) {
	st := runValidation(t, `{}`, nil)

	if st.ConfidenceScore != 0.5 {
		t.Fatalf("expected default confidence 0.5, got %v", st.ConfidenceScore)
	}
	if st.ValidationNotes != defaultValidationNotes {
		t.Fatalf("expected default notes, got %q", st.ValidationNotes)
	}
	if st.FinalResult.IsError() {
		t.Fatalf("defaults are not a failure")
	}
}

func TestValidationOutOfRangeConfidencePassesThrough(t *testing.T) {
	// The score contract is on the model; no clamping is applied.
	st := runValidation(t, `{"confidence_score": 1.7, "validation_notes": "overshoot"}`, nil)
	if st.ConfidenceScore != 1.7 {
		t.Fatalf("expected passthrough 1.7, got %v", st.ConfidenceScore)
	}
}

func TestValidationMalformedResponseIsHardFailure(t *testing.T) {
	st := runValidation(t, "definitely not json", nil)

	if st.ConfidenceScore != 0.0 {
		t.Fatalf("expected confidence forced to 0.0, got %v", st.ConfidenceScore)
	}
	if !st.FinalResult.IsError() {
		t.Fatalf("expected error marker deliverable")
	}
	if !strings.Contains(st.ValidationNotes, "Validation error") {
		t.Fatalf("notes must carry the error, got %q", st.ValidationNotes)
	}
}

func TestValidationModelFailureIsHardFailure(t *testing.T) {
	st := runValidation(t, "", errors.New("timeout"))

	if st.ConfidenceScore != 0.0 {
		t.Fatalf("expected confidence 0.0, got %v", st.ConfidenceScore)
	}
	if !st.FinalResult.IsError() || !strings.Contains(st.FinalResult.Error, "timeout") {
		t.Fatalf("expected error marker with cause, got %+v", st.FinalResult)
	}
}
