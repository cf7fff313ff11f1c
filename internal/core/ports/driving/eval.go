package driving

import (
	"context"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

// EvalService scores retrieval quality against a labelled query set.
// The harness bypasses answer generation and measures pure retrieval.
type EvalService interface {
	// Run executes every query through search and aggregates
	// precision@k, recall@k, MRR and latency.
	Run(ctx context.Context, ownerID string, queries []domain.EvalQuery, k int) (*domain.EvalReport, error)
}
