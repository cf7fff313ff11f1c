package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
)

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response   string
	genErr     error
	lastPrompt string
	genCalls   int
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.genCalls++
	m.lastPrompt = prompt
	if m.genErr != nil {
		return "", m.genErr
	}
	return m.response, nil
}

func (m *mockLLMService) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return m.response, m.genErr
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	candidates []domain.RetrievalCandidate
	searchErr  error
}

func (m *mockSearchService) Search(_ context.Context, _, _ string, _ int) ([]domain.RetrievalCandidate, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.candidates, nil
}

func newTestAnswerService(search *mockSearchService, llm driven.LLMService) *AnswerService {
	return NewAnswerService(search, NewContextAssembler(), llm, nil, domain.RetrievalSettings{})
}

func TestAsk_NoCandidatesSkipsModel(t *testing.T) {
	llm := &mockLLMService{response: "should not be used"}
	svc := newTestAnswerService(&mockSearchService{}, llm)

	answer, err := svc.Ask(context.Background(), "alice", "anything?")
	require.NoError(t, err)

	assert.Equal(t, NoRelevantNotesAnswer, answer.Text)
	assert.Empty(t, answer.Citations)
	assert.NotNil(t, answer.Citations)
	assert.Zero(t, llm.genCalls, "model must not be called without context")
}

func TestAsk_GeneratesCitedAnswer(t *testing.T) {
	search := &mockSearchService{candidates: []domain.RetrievalCandidate{
		candidate(10, "Go tips", "use gofmt"),
		candidate(20, "Vim tips", "use :wq"),
	}}
	llm := &mockLLMService{response: "Format with gofmt [1]."}
	svc := newTestAnswerService(search, llm)

	answer, err := svc.Ask(context.Background(), "alice", "how do I format?")
	require.NoError(t, err)

	assert.Equal(t, "Format with gofmt [1].", answer.Text)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, 1, answer.Citations[0].Marker)
	assert.Equal(t, int64(10), answer.Citations[0].NoteID)
	assert.Equal(t, "Go tips", answer.Citations[0].Title)

	// The prompt carries both context blocks and the question.
	assert.Contains(t, llm.lastPrompt, "[1] Go tips")
	assert.Contains(t, llm.lastPrompt, "[2] Vim tips")
	assert.Contains(t, llm.lastPrompt, "how do I format?")
}

func TestAsk_SearchFailurePropagates(t *testing.T) {
	search := &mockSearchService{searchErr: domain.ErrRetrievalUnavailable}
	svc := newTestAnswerService(search, &mockLLMService{})

	_, err := svc.Ask(context.Background(), "alice", "q")
	assert.ErrorIs(t, err, domain.ErrRetrievalUnavailable)
}

func TestAsk_NilLLMService(t *testing.T) {
	search := &mockSearchService{candidates: []domain.RetrievalCandidate{
		candidate(1, "T", "C"),
	}}
	svc := newTestAnswerService(search, nil)

	_, err := svc.Ask(context.Background(), "alice", "q")
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestAsk_GenerateFailure(t *testing.T) {
	search := &mockSearchService{candidates: []domain.RetrievalCandidate{
		candidate(1, "T", "C"),
	}}
	llm := &mockLLMService{genErr: errors.New("rate limited")}
	svc := newTestAnswerService(search, llm)

	_, err := svc.Ask(context.Background(), "alice", "q")
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestExtractCitations(t *testing.T) {
	available := []domain.Citation{
		{Marker: 1, NoteID: 10, Title: "One"},
		{Marker: 2, NoteID: 20, Title: "Two"},
		{Marker: 3, NoteID: 30, Title: "Three"},
	}

	tests := []struct {
		name    string
		answer  string
		wantIDs []int64
	}{
		{
			name:    "subset in rank order",
			answer:  "See [1] and also [3].",
			wantIDs: []int64{10, 30},
		},
		{
			name:    "ordered by first appearance",
			answer:  "First [2], then [1].",
			wantIDs: []int64{20, 10},
		},
		{
			name:    "duplicates collapse",
			answer:  "[1] says so, and [1] again.",
			wantIDs: []int64{10},
		},
		{
			name:    "unknown markers skipped",
			answer:  "According to [7] and [2].",
			wantIDs: []int64{20},
		},
		{
			name:    "no markers",
			answer:  "Nothing cited here.",
			wantIDs: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cited := extractCitations(tt.answer, available)
			gotIDs := make([]int64, 0, len(cited))
			for _, c := range cited {
				gotIDs = append(gotIDs, c.NoteID)
			}
			assert.Equal(t, tt.wantIDs, gotIDs)
		})
	}
}

func TestLoadAnswerPrompt_FallsBackToDefault(t *testing.T) {
	svc := newTestAnswerService(&mockSearchService{}, nil)
	assert.Equal(t, defaultAnswerPrompt, svc.loadAnswerPrompt())
}
