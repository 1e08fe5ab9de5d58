package research

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/llm"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

func newTestPipeline(t *testing.T, responder func(llm.Request) (string, error)) (*Pipeline, vectorstore.Store) {
	t.Helper()
	store, err := vectorstore.Open(filepath.Join(t.TempDir(), "chunks.db"), 8)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	embedder := embed.NewMockProvider(8)
	ctx := context.Background()
	chunk := parsetree.Chunk{
		ID: "c1", FilePath: "a.go", Language: "go", Kind: parsetree.KindFunction,
		Name: "Foo", Content: "func Foo() {}", StartLine: 1, EndLine: 3,
	}
	vecs, err := embedder.Embed(ctx, []string{chunk.Content})
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []parsetree.Chunk{chunk}, vecs))

	mockLLM := &llm.MockProvider{Responder: responder}
	return New(mockLLM, embedder, store), store
}

func jsonResponder(t *testing.T) func(llm.Request) (string, error) {
	t.Helper()
	return func(req llm.Request) (string, error) {
		switch {
		case strings.Contains(req.System, "decompose"):
			subs := []SubQuestion{{Question: "how does Foo work", Category: "behavior"}}
			b, _ := json.Marshal(subs)
			return string(b), nil
		case strings.Contains(req.System, "gaps"):
			b, _ := json.Marshal([]string{})
			return string(b), nil
		default:
			return "Foo does X (a.go:1-3)", nil
		}
	}
}

func TestRunHappyPathEmitsStepsInOrder(t *testing.T) {
	pipeline, _ := newTestPipeline(t, jsonResponder(t))
	progress := make(chan Progress, 16)

	var collected []Progress
	done := make(chan struct{})
	go func() {
		for p := range progress {
			collected = append(collected, p)
		}
		close(done)
	}()

	result, err := pipeline.Run(context.Background(), Request{Question: "how does Foo work?", Preset: Quick}, progress, nil)
	close(progress)
	<-done

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.Answer, "Foo")
	assert.Equal(t, 1, result.ChunksUsed)
	assert.Equal(t, "how does Foo work?", result.Question)
	assert.Equal(t, 3, result.LLMCalls) // decomposition + gap analysis + synthesis, no follow-ups identified
	assert.Len(t, result.Steps, len(collected))

	var kinds []Kind
	for _, p := range collected {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []Kind{
		KindStarted,
		KindDecompositionComplete,
		KindRetrievalComplete,
		KindGapAnalysisComplete,
		KindSynthesisStarted,
		KindComplete,
	}, kinds)
}

func TestRunWithFollowUpsEmitsFollowupCompleteAndCountsLLMCalls(t *testing.T) {
	pipeline, _ := newTestPipeline(t, func(req llm.Request) (string, error) {
		switch {
		case strings.Contains(req.System, "decompose"):
			subs := []SubQuestion{{Question: "how does Foo work", Category: "behavior"}}
			b, _ := json.Marshal(subs)
			return string(b), nil
		case strings.Contains(req.System, "gaps"):
			b, _ := json.Marshal([]string{"what calls Foo"})
			return string(b), nil
		default:
			return "Foo does X (a.go:1-3)", nil
		}
	})
	progress := make(chan Progress, 16)
	var collected []Progress
	done := make(chan struct{})
	go func() {
		for p := range progress {
			collected = append(collected, p)
		}
		close(done)
	}()

	result, err := pipeline.Run(context.Background(), Request{Question: "how does Foo work?", Preset: Quick}, progress, nil)
	close(progress)
	<-done

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.LLMCalls) // follow-up retrieval is vector search, not an LLM call
	assert.Len(t, result.FollowUps, 1)

	var kinds []Kind
	for _, p := range collected {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []Kind{
		KindStarted,
		KindDecompositionComplete,
		KindRetrievalComplete,
		KindGapAnalysisComplete,
		KindFollowupComplete,
		KindSynthesisStarted,
		KindComplete,
	}, kinds)
}

func TestRunFallsBackToOriginalQuestionOnMalformedDecomposition(t *testing.T) {
	pipeline, _ := newTestPipeline(t, func(req llm.Request) (string, error) {
		if strings.Contains(req.System, "decompose") {
			return "not json", nil
		}
		if strings.Contains(req.System, "gaps") {
			return "[]", nil
		}
		return "answer", nil
	})

	result, err := pipeline.Run(context.Background(), Request{Question: "what does this do?"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.SubQuestions, 1)
	assert.Equal(t, "what does this do?", result.SubQuestions[0].Question)
}

func TestRunCancelledBeforeFirstStepReturnsResearchCancelledError(t *testing.T) {
	pipeline, _ := newTestPipeline(t, jsonResponder(t))

	result, err := pipeline.Run(context.Background(), Request{Question: "q"}, nil, func() bool { return true })
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "decomposition")
}

func TestRunCancelledMidPipelineStopsBeforeSynthesis(t *testing.T) {
	calls := 0
	pipeline, _ := newTestPipeline(t, jsonResponder(t))

	cancelAfterGapAnalysis := func() bool {
		calls++
		return calls > 3 // allow decomposition + retrieval + gap-analysis boundaries through
	}

	result, err := pipeline.Run(context.Background(), Request{Question: "q"}, nil, cancelAfterGapAnalysis)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "synthesis")
}
