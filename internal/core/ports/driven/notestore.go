package driven

import (
	"context"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

// NoteStore provides durable, owner-scoped note persistence.
type NoteStore interface {
	// Save stores or updates a note. A zero ID means create; the store
	// assigns the ID on the passed note.
	Save(ctx context.Context, note *domain.Note) error

	// Get retrieves a note by ID, scoped to its owner.
	// Returns domain.ErrNotFound for other owners' notes.
	Get(ctx context.Context, ownerID string, id int64) (*domain.Note, error)

	// List returns all notes belonging to an owner, newest first.
	List(ctx context.Context, ownerID string) ([]domain.Note, error)

	// Delete removes a note, scoped to its owner.
	Delete(ctx context.Context, ownerID string, id int64) error

	// Close releases resources.
	Close() error
}
