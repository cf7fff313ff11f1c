package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

// mockEvalSearch returns canned candidates per query text.
type mockEvalSearch struct {
	results map[string][]int64
	errs    map[string]error
}

func (m *mockEvalSearch) Search(_ context.Context, _, query string, _ int) ([]domain.RetrievalCandidate, error) {
	if err := m.errs[query]; err != nil {
		return nil, err
	}
	ids := m.results[query]
	candidates := make([]domain.RetrievalCandidate, len(ids))
	for i, id := range ids {
		candidates[i] = domain.RetrievalCandidate{NoteID: id, Similarity: 1 - float64(i)*0.1}
	}
	return candidates, nil
}

func TestEvalService_Validation(t *testing.T) {
	svc := NewEvalService(&mockEvalSearch{})
	queries := []domain.EvalQuery{{Query: "q", RelevantNoteIDs: []int64{1}}}

	_, err := svc.Run(context.Background(), "alice", queries, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTopK)

	_, err = svc.Run(context.Background(), "alice", queries, 21)
	assert.ErrorIs(t, err, domain.ErrInvalidTopK)

	_, err = svc.Run(context.Background(), "alice", nil, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEvalService_Metrics(t *testing.T) {
	search := &mockEvalSearch{results: map[string][]int64{
		"good": {1, 2, 3},
		"bad":  {7, 8, 9},
	}}
	svc := NewEvalService(search)

	queries := []domain.EvalQuery{
		{Query: "good", RelevantNoteIDs: []int64{1, 3}},
		{Query: "bad", RelevantNoteIDs: []int64{99}},
	}

	report, err := svc.Run(context.Background(), "alice", queries, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalQueries)
	assert.Equal(t, 3, report.K)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Timestamp.IsZero())

	// "good": p@3 = 2/3, r@3 = 2/2, rr = 1. "bad": all zero.
	assert.InDelta(t, (2.0/3.0)/2, report.MeanPrecisionAtK, 1e-9)
	assert.InDelta(t, 0.5, report.MeanRecallAtK, 1e-9)
	assert.InDelta(t, 0.5, report.MRR, 1e-9)
	assert.GreaterOrEqual(t, report.MeanLatencyMs, 0.0)
}

func TestEvalService_ReciprocalRankUsesFirstHit(t *testing.T) {
	search := &mockEvalSearch{results: map[string][]int64{
		"q": {5, 6, 7},
	}}
	svc := NewEvalService(search)

	queries := []domain.EvalQuery{{Query: "q", RelevantNoteIDs: []int64{7}}}
	report, err := svc.Run(context.Background(), "alice", queries, 3)
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3.0, report.MRR, 1e-9)
}

func TestEvalService_EmptyRelevantSetScoresZeroRecall(t *testing.T) {
	search := &mockEvalSearch{results: map[string][]int64{"q": {1, 2}}}
	svc := NewEvalService(search)

	queries := []domain.EvalQuery{{Query: "q"}}
	report, err := svc.Run(context.Background(), "alice", queries, 2)
	require.NoError(t, err)

	assert.Zero(t, report.MeanRecallAtK)
	assert.Zero(t, report.MeanPrecisionAtK)
	assert.Zero(t, report.MRR)
}

func TestEvalService_SearchFailureCountsAsEmpty(t *testing.T) {
	search := &mockEvalSearch{
		results: map[string][]int64{"ok": {1}},
		errs:    map[string]error{"broken": errors.New("boom")},
	}
	svc := NewEvalService(search)

	queries := []domain.EvalQuery{
		{Query: "ok", RelevantNoteIDs: []int64{1}},
		{Query: "broken", RelevantNoteIDs: []int64{1}},
	}

	report, err := svc.Run(context.Background(), "alice", queries, 1)
	require.NoError(t, err, "one failing query must not abort the run")

	assert.Equal(t, 2, report.TotalQueries)
	assert.InDelta(t, 0.5, report.MeanPrecisionAtK, 1e-9)
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.json")
	data := `[
		{"query": "what is a vault?", "relevant_note_ids": [1, 2], "description": "basic"},
		{"query": "unanswerable", "relevant_note_ids": []}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	queries, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, "what is a vault?", queries[0].Query)
	assert.Equal(t, []int64{1, 2}, queries[0].RelevantNoteIDs)
	assert.Equal(t, "basic", queries[0].Description)
	assert.Empty(t, queries[1].RelevantNoteIDs)
}

func TestLoadDataset_Errors(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))
	_, err = LoadDataset(path)
	assert.Error(t, err)
}
