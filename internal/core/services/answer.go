package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vaulted-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// NoRelevantNotesAnswer is returned without calling the model when
// retrieval produced nothing to cite.
const NoRelevantNotesAnswer = "I couldn't find any relevant notes to answer your question."

// defaultAnswerPrompt is the fallback template when no PromptStore is
// configured. Takes the assembled context and the question, in order.
const defaultAnswerPrompt = `You are a helpful assistant that answers questions based on the user's personal notes.

Context from notes:
%s

User question: %s

Instructions:
- Answer the question using ONLY information from the provided notes
- Reference notes using [1], [2], etc. when citing information
- If the notes don't contain enough information, say so
- Be concise and accurate

Answer:`

// citationMarkerRe matches inline citation markers like [1] or [12].
var citationMarkerRe = regexp.MustCompile(`\[(\d+)\]`)

// AnswerService runs the full ask pipeline: retrieve, assemble a
// token-bounded context, and generate a cited answer with a single model
// call. No multi-step agent loop.
type AnswerService struct {
	search      driving.SearchService
	assembler   *ContextAssembler
	llmService  driven.LLMService
	promptStore driven.PromptStore

	topK            int
	contextBudget   int
	maxAnswerTokens int
}

// NewAnswerService creates a new answer service.
// The llmService and promptStore parameters are optional (can be nil);
// asking without an LLM fails with domain.ErrGenerationUnavailable.
func NewAnswerService(
	search driving.SearchService,
	assembler *ContextAssembler,
	llmService driven.LLMService,
	promptStore driven.PromptStore,
	retrieval domain.RetrievalSettings,
) *AnswerService {
	defaults := domain.DefaultAppSettings().Retrieval
	if retrieval.TopK == 0 {
		retrieval.TopK = defaults.TopK
	}
	if retrieval.ContextBudget == 0 {
		retrieval.ContextBudget = defaults.ContextBudget
	}
	if retrieval.MaxAnswerTokens == 0 {
		retrieval.MaxAnswerTokens = defaults.MaxAnswerTokens
	}

	return &AnswerService{
		search:          search,
		assembler:       assembler,
		llmService:      llmService,
		promptStore:     promptStore,
		topK:            retrieval.TopK,
		contextBudget:   retrieval.ContextBudget,
		maxAnswerTokens: retrieval.MaxAnswerTokens,
	}
}

// Ask retrieves candidates for the query, assembles the context and
// generates a cited answer.
func (s *AnswerService) Ask(ctx context.Context, ownerID, query string) (*domain.Answer, error) {
	logger.Section("Ask Pipeline")

	candidates, err := s.search.Search(ctx, ownerID, query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	contextText, citations, err := s.assembler.Assemble(candidates, s.contextBudget)
	if err != nil {
		return nil, fmt.Errorf("assemble context: %w", err)
	}

	return s.Generate(ctx, query, contextText, citations)
}

// Generate calls the language model once with the assembled context and
// post-processes the raw answer. The returned citations are exactly the
// markers literally present in the answer text, ordered by first
// appearance - context the model ignored is not cited.
func (s *AnswerService) Generate(
	ctx context.Context, query, contextText string, citations []domain.Citation,
) (*domain.Answer, error) {
	if contextText == domain.NoContextMarker {
		logger.Info("No context available, skipping model call")
		return &domain.Answer{
			Text:      NoRelevantNotesAnswer,
			Citations: []domain.Citation{},
		}, nil
	}

	if s.llmService == nil {
		logger.Warn("Ask unavailable: LLM service is nil")
		return nil, fmt.Errorf("%w: LLM service not configured", domain.ErrGenerationUnavailable)
	}

	prompt := fmt.Sprintf(s.loadAnswerPrompt(), contextText, query)
	logger.Debug("Prompt: ~%d tokens", EstimateTokens(prompt))

	raw, err := s.llmService.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxAnswerTokens,
		Temperature: 0.7,
	})
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	cited := extractCitations(raw, citations)
	logger.Info("Answer generated: %d citations used of %d available", len(cited), len(citations))

	return &domain.Answer{
		Text:      raw,
		Citations: cited,
	}, nil
}

// loadAnswerPrompt returns the answer template, preferring the prompt
// store over the embedded default.
func (s *AnswerService) loadAnswerPrompt() string {
	if s.promptStore == nil {
		return defaultAnswerPrompt
	}
	prompt, err := s.promptStore.Load(driven.PromptAnswer)
	if err != nil || prompt == "" {
		return defaultAnswerPrompt
	}
	return prompt
}

// extractCitations filters the citation map down to the markers that
// appear in the answer, ordered by first appearance in the text rather
// than retrieval rank.
func extractCitations(answer string, available []domain.Citation) []domain.Citation {
	byMarker := make(map[int]domain.Citation, len(available))
	for _, c := range available {
		byMarker[c.Marker] = c
	}

	seen := make(map[int]bool)
	cited := []domain.Citation{}

	for _, match := range citationMarkerRe.FindAllStringSubmatch(answer, -1) {
		marker, err := strconv.Atoi(match[1])
		if err != nil || seen[marker] {
			continue
		}
		citation, ok := byMarker[marker]
		if !ok {
			// The model invented a marker outside the context map.
			logger.Warn("Answer references unknown citation marker [%d]", marker)
			continue
		}
		seen[marker] = true
		cited = append(cited, citation)
	}

	return cited
}
