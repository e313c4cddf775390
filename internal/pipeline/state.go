// Package pipeline implements the multi-stage document analysis chain:
// vision and text insight generation, fusion, and validation, wired through a
// per-request state record.
package pipeline

import "docint/internal/ingest"

// Sentinel insight texts returned without invoking the model.
const (
	NoImagesSentinel = "No images provided."
	NoTextSentinel   = "No text extracted."
)

// Insight is the output of a single stage. Degraded marks a contained
// collaborator failure; Reason then carries the underlying error text and
// Text embeds it for downstream prompts.
type Insight struct {
	Text     string
	Degraded bool
	Reason   string
}

// Deliverable is the terminal artifact of one pipeline run. A non-empty Error
// marks the hard-failure path out of validation; otherwise Summary,
// Confidence and Notes are populated.
type Deliverable struct {
	Summary    string  `json:"summary,omitempty"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// IsError reports whether the deliverable carries the error marker.
func (d *Deliverable) IsError() bool { return d.Error != "" }

// State is the mutable record threaded through every stage. One instance is
// created per analysis invocation and discarded afterwards; it is never
// shared across requests. Each stage writes only the fields it owns and never
// reads a field written by a later stage.
type State struct {
	// Inputs, owned by the caller for the pipeline's lifetime.
	SourceID       string
	PageImages     [][]byte
	DetectedLayout []ingest.LayoutElement
	RawText        string

	// Stage outputs, written exactly once each.
	VisionInsight   Insight
	TextInsight     Insight
	FusionNarrative Insight

	// Validation outputs.
	ConfidenceScore float64
	ValidationNotes string

	FinalResult *Deliverable
}
