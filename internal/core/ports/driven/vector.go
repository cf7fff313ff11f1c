package driven

import "context"

// VectorIndex provides owner-scoped nearest-neighbour search over note
// embeddings. The distance metric is cosine distance and is fixed for the
// lifetime of an index; mixing metrics across entries is undefined.
type VectorIndex interface {
	// Upsert inserts or replaces the vector for a note.
	// The vector length must match the index dimension exactly.
	Upsert(ctx context.Context, noteID int64, ownerID string, embedding []float32) error

	// Delete removes a note's vector from the index.
	// Deleting an absent note is not an error.
	Delete(ctx context.Context, noteID int64) error

	// QueryNearest finds the k nearest vectors belonging to ownerID,
	// ordered by ascending cosine distance. Returns fewer than k hits if
	// fewer exist, and an empty slice (not an error) when the owner has
	// no embedded notes. Results never cross owner boundaries.
	QueryNearest(ctx context.Context, ownerID string, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// NoteID is the matched note.
	NoteID int64

	// Distance is the cosine distance in [0,2]; 0 = identical direction.
	Distance float64
}
