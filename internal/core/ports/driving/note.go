package driving

import (
	"context"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

// NoteService manages the note lifecycle. Create and update trigger
// re-embedding of the content; delete removes the paired index entry.
// Every operation keeps working when the embedding provider is down.
type NoteService interface {
	// Create saves a new note and embeds its content.
	Create(ctx context.Context, ownerID, title, content string, tags []string) (*domain.Note, error)

	// Get retrieves a note by ID.
	Get(ctx context.Context, ownerID string, id int64) (*domain.Note, error)

	// List returns all of an owner's notes.
	List(ctx context.Context, ownerID string) ([]domain.Note, error)

	// Update replaces a note's content and re-embeds it.
	Update(ctx context.Context, ownerID string, id int64, title, content string, tags []string) (*domain.Note, error)

	// Delete removes a note and its vector index entry.
	Delete(ctx context.Context, ownerID string, id int64) error

	// Reindex embeds every note that is missing a vector.
	// Returns the number of notes embedded.
	Reindex(ctx context.Context, ownerID string) (int, error)
}
