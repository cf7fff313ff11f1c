package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/logger"
)

// charsPerToken is the deterministic token estimator used for context
// budgeting. Exact token counts are not required; what matters is that
// the estimate is consistent across calls so truncation is reproducible.
const charsPerToken = 4

// ContextAssembler selects a token-bounded subset of ranked candidates
// and formats them into a prompt context with numbered citation markers.
type ContextAssembler struct{}

// NewContextAssembler creates a new context assembler.
func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// Assemble walks candidates in ranked order, accumulating them while the
// estimated token total stays within budget. It stops at the first
// candidate that would overflow - it never skips ahead to a smaller later
// one, since candidates are already similarity-ordered. At least one
// candidate is always included if any exist, truncated to fit when it
// alone exceeds the budget.
//
// The returned citations map each included candidate to its marker, in
// inclusion order starting at 1. With no candidates, the context is
// domain.NoContextMarker so the generator can skip the model call.
func (a *ContextAssembler) Assemble(
	candidates []domain.RetrievalCandidate, tokenBudget int,
) (string, []domain.Citation, error) {
	if tokenBudget < 1 {
		return "", nil, fmt.Errorf("%w: %d", domain.ErrInvalidBudget, tokenBudget)
	}

	if len(candidates) == 0 {
		logger.Debug("No candidates, returning no-context marker")
		return domain.NoContextMarker, []domain.Citation{}, nil
	}

	var builder strings.Builder
	citations := make([]domain.Citation, 0, len(candidates))
	used := 0

	for _, cand := range candidates {
		marker := len(citations) + 1
		block := formatContextBlock(marker, cand.Title, cand.Content)
		cost := EstimateTokens(block)

		if used+cost > tokenBudget {
			if len(citations) > 0 {
				break
			}
			// Guaranteed inclusion: shrink the top candidate instead of
			// returning an empty context.
			block = truncateBlock(marker, cand.Title, cand.Content, tokenBudget)
			cost = EstimateTokens(block)
		}

		builder.WriteString(block)
		used += cost
		citations = append(citations, domain.Citation{
			Marker:     marker,
			NoteID:     cand.NoteID,
			Title:      cand.Title,
			Excerpt:    cand.Excerpt,
			Similarity: cand.Similarity,
		})
	}

	logger.Debug("Assembled context: %d of %d candidates, ~%d/%d tokens",
		len(citations), len(candidates), used, tokenBudget)

	return builder.String(), citations, nil
}

// EstimateTokens approximates the token count of text. Deliberately
// rough (4 characters per token) but deterministic.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// formatContextBlock renders one candidate as a numbered context entry.
func formatContextBlock(marker int, title, content string) string {
	return fmt.Sprintf("[%d] %s\n%s\n\n", marker, title, content)
}

// truncateBlock shrinks a candidate's content so the whole block fits the
// token budget. The budget is known to be too small for the full block,
// so the content is cut at a word boundary to the remaining room.
func truncateBlock(marker int, title, content string, tokenBudget int) string {
	frame := formatContextBlock(marker, title, "")
	// Leave room for the ellipsis MakeExcerpt appends.
	room := tokenBudget*charsPerToken - len(frame) - 3
	if room < 1 {
		room = 1
	}
	return formatContextBlock(marker, title, domain.MakeExcerpt(content, room))
}
