// Package memory provides an exact in-memory vector index.
//
// The index scans every vector belonging to the owner and computes true
// cosine distances, so recall is deterministic - the behaviour wanted for
// small corpora and tests. Approximate backends can replace it behind the
// same port once a vault outgrows linear scans.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	ownerID string
	vector  []float32
}

// Index is an exact, owner-scoped in-memory vector index.
// Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   map[int64]entry
}

// New creates an index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", domain.ErrInvalidInput, dimension)
	}
	return &Index{
		dimension: dimension,
		entries:   make(map[int64]entry),
	}, nil
}

// Upsert inserts or replaces the vector for a note.
func (idx *Index) Upsert(_ context.Context, noteID int64, ownerID string, embedding []float32) error {
	if len(embedding) != idx.dimension {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(embedding), idx.dimension)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[noteID] = entry{ownerID: ownerID, vector: vec}
	return nil
}

// Delete removes a note's vector. Deleting an absent note is a no-op.
func (idx *Index) Delete(_ context.Context, noteID int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, noteID)
	return nil
}

// QueryNearest scans the owner's vectors and returns the k nearest by
// cosine distance, ascending. Ties break by ascending note ID.
func (idx *Index) QueryNearest(
	_ context.Context, ownerID string, query []float32, k int,
) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	idx.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for noteID, e := range idx.entries {
		if e.ownerID != ownerID {
			continue
		}
		hits = append(hits, driven.VectorHit{
			NoteID:   noteID,
			Distance: cosineDistance(query, e.vector),
		})
	}
	idx.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].NoteID < hits[j].NoteID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	return nil
}

// cosineDistance is 1 minus the cosine of the angle between a and b,
// giving a value in [0,2]. A zero vector has no direction and maps to
// the maximum distance.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
