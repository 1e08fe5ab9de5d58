package research

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

const decompositionSystemPrompt = `You decompose a research question about a code repository into independent sub-questions.
Respond with a JSON array of objects, each with "question" and "category" fields, and nothing else.`

func decompositionPrompt(question string, maxSubQuestions int) string {
	return fmt.Sprintf(
		"Question: %s\n\nProduce at most %d sub-questions that together cover the question, as a JSON array of {\"question\":...,\"category\":...} objects.",
		question, maxSubQuestions,
	)
}

// parseSubQuestions decodes a JSON array of SubQuestion from raw, tolerating
// a surrounding markdown code fence. An empty result from well-formed JSON
// (an empty array) is returned as-is; the caller decides whether to retry.
func parseSubQuestions(raw string, maxSubQuestions int) ([]SubQuestion, error) {
	var subs []SubQuestion
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &subs); err != nil {
		return nil, err
	}
	if len(subs) > maxSubQuestions {
		subs = subs[:maxSubQuestions]
	}
	return subs, nil
}

const gapAnalysisSystemPrompt = `You identify gaps in retrieved evidence for a code research question.
Respond with a JSON array of follow-up query strings, and nothing else. An empty array means no gaps found.`

func gapAnalysisPrompt(question string, subs []SubQuestion, chunks []parsetree.Chunk, maxFollowUps int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original question: %s\n\nSub-questions:\n", question)
	for _, s := range subs {
		fmt.Fprintf(&b, "- [%s] %s\n", s.Category, s.Question)
	}
	b.WriteString("\nRetrieved evidence:\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "- %s:%d-%d (%s %s)\n", c.FilePath, c.StartLine, c.EndLine, c.Kind, c.Name)
	}
	fmt.Fprintf(&b, "\nList at most %d follow-up queries that would close remaining gaps, as a JSON array of strings.", maxFollowUps)
	return b.String()
}

func parseFollowUps(raw string, maxFollowUps int) ([]string, error) {
	var followUps []string
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &followUps); err != nil {
		return nil, err
	}
	if len(followUps) > maxFollowUps {
		followUps = followUps[:maxFollowUps]
	}
	return followUps, nil
}

const synthesisSystemPrompt = `You answer questions about a code repository using only the provided evidence.
Cite every claim with an inline reference of the form (file:start-end) matching one of the provided chunks.`

func synthesisPrompt(question string, chunks []parsetree.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nEvidence:\n", question)
	for _, c := range chunks {
		fmt.Fprintf(&b, "--- %s:%d-%d ---\n%s\n\n", c.FilePath, c.StartLine, c.EndLine, c.Content)
	}
	b.WriteString("Answer the question, citing evidence as (file:start-end).")
	return b.String()
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
