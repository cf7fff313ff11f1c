package driving

import (
	"context"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

// SearchService provides semantic retrieval over a single owner's notes.
type SearchService interface {
	// Search embeds the query, ranks the owner's notes by similarity and
	// returns at most topK candidates, best first.
	Search(ctx context.Context, ownerID, query string, topK int) ([]domain.RetrievalCandidate, error)
}

// AnswerService produces cited answers from retrieved notes.
type AnswerService interface {
	// Ask runs the full pipeline: retrieve, assemble context, generate.
	Ask(ctx context.Context, ownerID, query string) (*domain.Answer, error)
}
