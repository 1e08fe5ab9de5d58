// Package research implements the Multi-Step Research Pipeline: question
// decomposition, parallel evidence retrieval, gap analysis, follow-up
// retrieval, and cited synthesis.
package research

import (
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

// SubQuestion is one decomposed facet of the original research question.
type SubQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// SourceReference cites a contiguous line range in one file.
type SourceReference struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Kind enumerates the step a Progress event reports on. Run emits these in
// strict order: KindStarted, KindDecompositionComplete,
// KindRetrievalComplete, KindGapAnalysisComplete, (KindFollowupComplete if
// any follow-up queries were identified), KindSynthesisStarted,
// KindComplete — or KindCancelled at whatever step boundary cancellation
// was observed.
type Kind string

const (
	KindStarted               Kind = "started"
	KindDecompositionComplete Kind = "decomposition_complete"
	KindRetrievalComplete     Kind = "retrieval_complete"
	KindGapAnalysisComplete   Kind = "gap_analysis_complete"
	KindFollowupComplete      Kind = "followup_complete"
	KindSynthesisStarted      Kind = "synthesis_started"
	KindComplete              Kind = "complete"
	KindCancelled             Kind = "cancelled"
)

// Progress is one event pushed to the caller as the pipeline advances.
// RunID correlates every event of one Run invocation, including in logs
// emitted by callers that fan the channel out to multiple sinks.
type Progress struct {
	RunID   string
	Step    int
	Kind    Kind
	Message string
	Payload any
}

// ResearchStep is one entry of Result.Steps: a record of a completed stage,
// mirroring the Progress events emitted for it during Run.
type ResearchStep struct {
	Step    int
	Kind    Kind
	Message string
}

// Result is the pipeline's final output. RunID matches every Progress
// event emitted during the same Run call. LLMCalls counts every LLM.Generate
// invocation made over the run (decomposition, gap analysis, synthesis; a
// malformed decomposition response causes one retry call).
type Result struct {
	RunID        string
	Question     string
	Answer       string
	Citations    []SourceReference
	SubQuestions []SubQuestion
	FollowUps    []string
	Steps        []ResearchStep
	ChunksUsed   int
	LLMCalls     int
}

// Request is one Run invocation.
type Request struct {
	Question string
	Preset   Preset
}

// retrievedChunk pairs a chunk with its search distance, for
// de-duplication and relevance-ordered capping.
type retrievedChunk struct {
	chunk    parsetree.Chunk
	distance float32
}
