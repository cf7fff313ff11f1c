package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vaulted-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultExcerptLength is the excerpt size used when none is configured.
const DefaultExcerptLength = 200

// SearchService retrieves the most similar notes for a query. It is
// read-only: a search never mutates the store or the index.
type SearchService struct {
	noteStore        driven.NoteStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	excerptLength    int
}

// NewSearchService creates a new search service.
// The embeddingService parameter is optional (can be nil); searching
// without one fails with domain.ErrRetrievalUnavailable.
func NewSearchService(
	noteStore driven.NoteStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	excerptLength int,
) *SearchService {
	if excerptLength <= 0 {
		excerptLength = DefaultExcerptLength
	}
	return &SearchService{
		noteStore:        noteStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		excerptLength:    excerptLength,
	}
}

// Search embeds the query, looks up the owner's nearest vectors and
// returns ranked candidates. Results are sorted by descending similarity;
// ties break by ascending note ID so ranking is deterministic.
func (s *SearchService) Search(
	ctx context.Context, ownerID, query string, topK int,
) ([]domain.RetrievalCandidate, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q, top-k: %d", query, topK)

	if topK < domain.MinTopK || topK > domain.MaxTopK {
		return nil, fmt.Errorf("%w: %d (allowed %d-%d)",
			domain.ErrInvalidTopK, topK, domain.MinTopK, domain.MaxTopK)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievalCandidate{}, nil
	}

	if s.embeddingService == nil {
		logger.Warn("Search unavailable: embedding service is nil")
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrRetrievalUnavailable)
	}
	if s.vectorIndex == nil {
		logger.Warn("Search unavailable: vector index is nil")
		return nil, fmt.Errorf("%w: vector index not configured", domain.ErrRetrievalUnavailable)
	}

	logger.Debug("Generating query embedding...")
	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalUnavailable, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	hits, err := s.vectorIndex.QueryNearest(ctx, ownerID, embedding, topK)
	if err != nil {
		logger.Warn("Vector index lookup failed: %v", err)
		return nil, fmt.Errorf("query nearest: %w", err)
	}
	logger.Debug("Vector index: %d hits", len(hits))

	candidates := make([]domain.RetrievalCandidate, 0, len(hits))
	for _, hit := range hits {
		note, err := s.noteStore.Get(ctx, ownerID, hit.NoteID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The index knows a note the store doesn't.
				logger.Warn("%v: note %d has a vector but no record, skipping",
					domain.ErrIndexInconsistency, hit.NoteID)
				continue
			}
			return nil, fmt.Errorf("get note %d: %w", hit.NoteID, err)
		}

		candidates = append(candidates, domain.RetrievalCandidate{
			NoteID:     note.ID,
			Title:      note.Title,
			Content:    note.Content,
			Excerpt:    note.Excerpt(s.excerptLength),
			Similarity: distanceToSimilarity(hit.Distance),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].NoteID < candidates[j].NoteID
	})

	logger.Info("Search results: %d candidates", len(candidates))
	return candidates, nil
}

// distanceToSimilarity converts a cosine distance in [0,2] to a
// similarity score clamped to [0,1]. The clamp guards against
// floating-point drift in index backends.
func distanceToSimilarity(distance float64) float64 {
	similarity := 1 - distance
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}
