package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vaulted-cli/internal/logger"
)

// Ensure EvalService implements the interface.
var _ driving.EvalService = (*EvalService)(nil)

// EvalService scores retrieval quality against labelled queries. It calls
// search directly, bypassing answer generation, and holds no state
// between runs.
type EvalService struct {
	search driving.SearchService
}

// NewEvalService creates a new evaluation service.
func NewEvalService(search driving.SearchService) *EvalService {
	return &EvalService{search: search}
}

// LoadDataset reads evaluation queries from a JSON file: an ordered array
// of {query, relevant_note_ids, description?} records.
func LoadDataset(path string) ([]domain.EvalQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var queries []domain.EvalQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return queries, nil
}

// Run executes every query through search and aggregates the metrics.
// A failed search counts as an empty retrieval rather than aborting the
// run, so one flaky query doesn't void the whole report.
func (s *EvalService) Run(
	ctx context.Context, ownerID string, queries []domain.EvalQuery, k int,
) (*domain.EvalReport, error) {
	if k < domain.MinTopK || k > domain.MaxTopK {
		return nil, fmt.Errorf("%w: %d (allowed %d-%d)",
			domain.ErrInvalidTopK, k, domain.MinTopK, domain.MaxTopK)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: empty query set", domain.ErrInvalidInput)
	}

	logger.Section("Retrieval Evaluation")
	logger.Info("Evaluating %d queries at k=%d", len(queries), k)

	var sumPrecision, sumRecall, sumRR, sumLatencyMs float64

	for i, q := range queries {
		start := time.Now()
		candidates, err := s.search.Search(ctx, ownerID, q.Query, k)
		latency := time.Since(start)
		sumLatencyMs += float64(latency.Microseconds()) / 1000

		if err != nil {
			logger.Warn("Query %d (%q) failed: %v", i+1, q.Query, err)
			candidates = nil
		}

		retrieved := make([]int64, len(candidates))
		for j, c := range candidates {
			retrieved[j] = c.NoteID
		}

		relevant := make(map[int64]bool, len(q.RelevantNoteIDs))
		for _, id := range q.RelevantNoteIDs {
			relevant[id] = true
		}

		p := precisionAtK(retrieved, relevant, k)
		r := recallAtK(retrieved, relevant, k)
		rr := reciprocalRank(retrieved, relevant)
		sumPrecision += p
		sumRecall += r
		sumRR += rr

		logger.Debug("Query %d: p@%d=%.4f r@%d=%.4f rr=%.4f latency=%s",
			i+1, k, p, k, r, rr, latency)
	}

	n := float64(len(queries))
	report := &domain.EvalReport{
		RunID:            uuid.NewString(),
		K:                k,
		TotalQueries:     len(queries),
		MeanPrecisionAtK: sumPrecision / n,
		MeanRecallAtK:    sumRecall / n,
		MRR:              sumRR / n,
		MeanLatencyMs:    sumLatencyMs / n,
		Timestamp:        time.Now().UTC(),
	}

	logger.Info("Report: p@%d=%.4f r@%d=%.4f mrr=%.4f latency=%.2fms",
		k, report.MeanPrecisionAtK, k, report.MeanRecallAtK, report.MRR, report.MeanLatencyMs)

	return report, nil
}

// precisionAtK is |retrieved[:k] ∩ relevant| / k.
func precisionAtK(retrieved []int64, relevant map[int64]bool, k int) float64 {
	if k <= 0 || len(retrieved) == 0 {
		return 0
	}
	return float64(relevantInTopK(retrieved, relevant, k)) / float64(k)
}

// recallAtK is |retrieved[:k] ∩ relevant| / |relevant|.
// Returns 0 when the relevant set is empty rather than dividing by zero.
func recallAtK(retrieved []int64, relevant map[int64]bool, k int) float64 {
	if k <= 0 || len(relevant) == 0 {
		return 0
	}
	return float64(relevantInTopK(retrieved, relevant, k)) / float64(len(relevant))
}

// reciprocalRank is 1/rank of the first relevant result, 0 if none.
func reciprocalRank(retrieved []int64, relevant map[int64]bool) float64 {
	for i, id := range retrieved {
		if relevant[id] {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func relevantInTopK(retrieved []int64, relevant map[int64]bool, k int) int {
	if k > len(retrieved) {
		k = len(retrieved)
	}
	count := 0
	for _, id := range retrieved[:k] {
		if relevant[id] {
			count++
		}
	}
	return count
}
