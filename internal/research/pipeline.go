package research

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/llm"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

// CancelPredicate reports whether a research run should stop early. It is
// checked at every step boundary and before every LLM call; ctx.Done() is
// its usual backing implementation, but it is a separate hook so that
// cancellation is not tied to context cancellation alone.
type CancelPredicate func() bool

// Pipeline drives the five-step Multi-Step Research Pipeline over one
// vector store using one LLM provider (typically an *llmcache.Cache, which
// satisfies llm.Provider).
type Pipeline struct {
	LLM      llm.Provider
	Embedder embed.Provider
	Store    vectorstore.Store
}

func New(llmProvider llm.Provider, embedder embed.Provider, store vectorstore.Store) *Pipeline {
	return &Pipeline{LLM: llmProvider, Embedder: embedder, Store: store}
}

// Run executes decomposition, parallel retrieval, gap analysis, follow-up
// retrieval, and synthesis in strict order, pushing a Progress event to
// progress (if non-nil) for each of started, decomposition_complete,
// retrieval_complete, gap_analysis_complete, followup_complete (only when
// follow-up queries were identified), synthesis_started, and complete.
// cancelled is checked at every step boundary and before every LLM call.
func (p *Pipeline) Run(ctx context.Context, req Request, progress chan<- Progress, cancelled CancelPredicate) (*Result, error) {
	if cancelled == nil {
		cancelled = func() bool { return false }
	}
	preset := req.Preset
	if preset.Name == "" {
		preset = Default
	}
	runID := uuid.NewString()
	var steps []ResearchStep
	var llmCalls int

	emit := func(step int, kind Kind, message string, payload any) {
		steps = append(steps, ResearchStep{Step: step, Kind: kind, Message: message})
		if progress != nil {
			progress <- Progress{RunID: runID, Step: step, Kind: kind, Message: message, Payload: payload}
		}
	}
	checkCancelled := func(step string) error {
		if ctx.Err() != nil || cancelled() {
			emit(0, KindCancelled, "cancelled at step: "+step, nil)
			return &deepwikierr.ResearchCancelledError{Step: step}
		}
		return nil
	}

	emit(0, KindStarted, "research started", req.Question)

	if err := checkCancelled("decomposition"); err != nil {
		return nil, err
	}
	subs, calls, err := p.decompose(ctx, req.Question, preset.MaxSubQuestions, func() error {
		return checkCancelled("decomposition")
	})
	llmCalls += calls
	if err != nil {
		return nil, err
	}
	emit(1, KindDecompositionComplete, fmt.Sprintf("decomposed into %d sub-questions", len(subs)), subs)

	if err := checkCancelled("retrieval"); err != nil {
		return nil, err
	}
	chunks, err := p.retrieveParallel(ctx, subs, preset)
	if err != nil {
		return nil, err
	}
	emit(2, KindRetrievalComplete, fmt.Sprintf("retrieved %d chunks", len(chunks)), nil)

	if err := checkCancelled("gap_analysis"); err != nil {
		return nil, err
	}
	followUps, calls, err := p.analyzeGaps(ctx, req.Question, subs, chunks, preset.MaxFollowUpQueries)
	llmCalls += calls
	if err != nil {
		return nil, err
	}
	emit(3, KindGapAnalysisComplete, fmt.Sprintf("identified %d follow-up queries", len(followUps)), followUps)

	if len(followUps) > 0 {
		if err := checkCancelled("follow_up_retrieval"); err != nil {
			return nil, err
		}
		chunks, err = p.retrieveFollowUps(ctx, followUps, chunks, preset)
		if err != nil {
			return nil, err
		}
		emit(4, KindFollowupComplete, fmt.Sprintf("working set now %d chunks", len(chunks)), nil)
	}

	if err := checkCancelled("synthesis"); err != nil {
		return nil, err
	}
	emit(5, KindSynthesisStarted, "synthesis started", nil)
	answer, citations, err := p.synthesize(ctx, req.Question, chunks, preset)
	llmCalls++
	if err != nil {
		return nil, err
	}
	emit(6, KindComplete, "research complete", nil)

	return &Result{
		RunID:        runID,
		Question:     req.Question,
		Answer:       answer,
		Citations:    citations,
		SubQuestions: subs,
		FollowUps:    followUps,
		Steps:        steps,
		ChunksUsed:   len(chunks),
		LLMCalls:     llmCalls,
	}, nil
}

// decompose runs the decomposition LLM call, re-prompting once on a
// malformed response before falling back to a single sub-question equal
// to the original. beforeRetry runs ahead of the re-prompt and its error
// ends decomposition. It returns the number of LLM.Generate calls it made.
func (p *Pipeline) decompose(ctx context.Context, question string, maxSubQuestions int, beforeRetry func() error) ([]SubQuestion, int, error) {
	req := llm.Request{
		System:      decompositionSystemPrompt,
		Prompt:      decompositionPrompt(question, maxSubQuestions),
		Temperature: 0,
	}
	calls := 0
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			if err := beforeRetry(); err != nil {
				return nil, calls, err
			}
		}
		raw, err := p.LLM.Generate(ctx, req)
		calls++
		if err != nil {
			return nil, calls, fmt.Errorf("%w: decomposition: %v", deepwikierr.ErrLLM, err)
		}
		subs, parseErr := parseSubQuestions(raw, maxSubQuestions)
		if parseErr == nil && len(subs) > 0 {
			return subs, calls, nil
		}
	}
	return []SubQuestion{{Question: question, Category: "general"}}, calls, nil
}

// searchText embeds query and runs one bounded VectorStore search for it.
func (p *Pipeline) searchText(ctx context.Context, query string, limit int) ([]vectorstore.SearchResult, error) {
	vectors, err := p.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", deepwikierr.ErrEmbedding, err)
	}
	return p.Store.Search(ctx, vectors[0], vectorstore.SearchOptions{Limit: limit})
}

// retrieveParallel runs one VectorStore search per sub-question concurrently.
func (p *Pipeline) retrieveParallel(ctx context.Context, subs []SubQuestion, preset Preset) ([]parsetree.Chunk, error) {
	var mu sync.Mutex
	var all []retrievedChunk

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range subs {
		s := s
		g.Go(func() error {
			results, err := p.searchText(gctx, s.Question, preset.ChunksPerSubquestion)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range results {
				all = append(all, retrievedChunk{chunk: r.Chunk, distance: r.Distance})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return capByRelevance(dedupeChunks(all), preset.MaxTotalChunks), nil
}

// analyzeGaps runs the gap-analysis LLM call. It returns the number of
// LLM.Generate calls it made (zero when maxFollowUps disables the step).
func (p *Pipeline) analyzeGaps(ctx context.Context, question string, subs []SubQuestion, chunks []parsetree.Chunk, maxFollowUps int) ([]string, int, error) {
	if maxFollowUps <= 0 {
		return nil, 0, nil
	}
	req := llm.Request{
		System:      gapAnalysisSystemPrompt,
		Prompt:      gapAnalysisPrompt(question, subs, chunks, maxFollowUps),
		Temperature: 0,
	}
	raw, err := p.LLM.Generate(ctx, req)
	if err != nil {
		return nil, 1, fmt.Errorf("%w: gap analysis: %v", deepwikierr.ErrLLM, err)
	}
	followUps, parseErr := parseFollowUps(raw, maxFollowUps)
	if parseErr != nil {
		return nil, 1, nil // a malformed gap-analysis response simply yields no follow-ups
	}
	return followUps, 1, nil
}

// retrieveFollowUps runs one VectorStore search per follow-up query,
// merging into the existing working set under the same global cap.
func (p *Pipeline) retrieveFollowUps(ctx context.Context, followUps []string, existing []parsetree.Chunk, preset Preset) ([]parsetree.Chunk, error) {
	all := make([]retrievedChunk, len(existing))
	for i, c := range existing {
		all[i] = retrievedChunk{chunk: c}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range followUps {
		q := q
		g.Go(func() error {
			results, err := p.searchText(gctx, q, preset.ChunksPerSubquestion)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range results {
				all = append(all, retrievedChunk{chunk: r.Chunk, distance: r.Distance})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return capByRelevance(dedupeChunks(all), preset.MaxTotalChunks), nil
}

// synthesize runs the final synthesis LLM call and returns one source
// reference per chunk in the working set, whether or not the answer cites it.
func (p *Pipeline) synthesize(ctx context.Context, question string, chunks []parsetree.Chunk, preset Preset) (string, []SourceReference, error) {
	req := llm.Request{
		System:      synthesisSystemPrompt,
		Prompt:      synthesisPrompt(question, chunks),
		Temperature: preset.SynthesisTemperature,
		MaxTokens:   preset.SynthesisMaxTokens,
	}
	answer, err := p.LLM.Generate(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: synthesis: %v", deepwikierr.ErrLLM, err)
	}
	citations := make([]SourceReference, 0, len(chunks))
	for _, c := range chunks {
		citations = append(citations, SourceReference{FilePath: c.FilePath, StartLine: c.StartLine, EndLine: c.EndLine})
	}
	return answer, citations, nil
}

func dedupeChunks(all []retrievedChunk) []retrievedChunk {
	seen := make(map[string]bool, len(all))
	out := make([]retrievedChunk, 0, len(all))
	for _, rc := range all {
		if seen[rc.chunk.ID] {
			continue
		}
		seen[rc.chunk.ID] = true
		out = append(out, rc)
	}
	return out
}

func capByRelevance(all []retrievedChunk, maxTotal int) []parsetree.Chunk {
	sort.SliceStable(all, func(i, j int) bool { return all[i].distance < all[j].distance })
	if maxTotal > 0 && len(all) > maxTotal {
		all = all[:maxTotal]
	}
	out := make([]parsetree.Chunk, len(all))
	for i, rc := range all {
		out[i] = rc.chunk
	}
	return out
}
