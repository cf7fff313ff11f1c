package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

func TestNew_RejectsInvalidDimension(t *testing.T) {
	for _, dim := range []int{0, -1} {
		_, err := New(dim)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "dimension=%d", dim)
	}
}

func TestIndex_UpsertDimensionMismatch(t *testing.T) {
	idx, err := New(3)
	require.NoError(t, err)

	err = idx.Upsert(context.Background(), 1, "alice", []float32{1, 0})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_QueryDimensionMismatch(t *testing.T) {
	idx, err := New(3)
	require.NoError(t, err)

	_, err = idx.QueryNearest(context.Background(), "alice", []float32{1}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_QueryOrdersByDistance(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, 1, "alice", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, 2, "alice", []float32{0, 1}))
	require.NoError(t, idx.Upsert(ctx, 3, "alice", []float32{1, 1}))

	hits, err := idx.QueryNearest(ctx, "alice", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, int64(1), hits[0].NoteID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
	assert.Equal(t, int64(3), hits[1].NoteID)
	assert.Equal(t, int64(2), hits[2].NoteID)
	assert.InDelta(t, 1, hits[2].Distance, 1e-6)
}

func TestIndex_TieBreaksByNoteID(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	// Identical vectors, identical distances.
	require.NoError(t, idx.Upsert(ctx, 9, "alice", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, 3, "alice", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, 6, "alice", []float32{1, 0}))

	hits, err := idx.QueryNearest(ctx, "alice", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, int64(3), hits[0].NoteID)
	assert.Equal(t, int64(6), hits[1].NoteID)
	assert.Equal(t, int64(9), hits[2].NoteID)
}

func TestIndex_OwnerIsolation(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, 1, "alice", []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, 2, "bob", []float32{1, 0}))

	hits, err := idx.QueryNearest(ctx, "alice", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].NoteID)
}

func TestIndex_TruncatesToK(t *testing.T) {
	idx, err := New(1)
	require.NoError(t, err)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, idx.Upsert(ctx, i, "alice", []float32{float32(i)}))
	}

	hits, err := idx.QueryNearest(ctx, "alice", []float32{1}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestIndex_EmptyOwnerReturnsNoHits(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)

	hits, err := idx.QueryNearest(context.Background(), "nobody", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotNil(t, hits)
}

func TestIndex_UpsertReplaces(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, 1, "alice", []float32{0, 1}))
	require.NoError(t, idx.Upsert(ctx, 1, "alice", []float32{1, 0}))

	hits, err := idx.QueryNearest(ctx, "alice", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
}

func TestIndex_UpsertCopiesVector(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	vec := []float32{1, 0}
	require.NoError(t, idx.Upsert(ctx, 1, "alice", vec))

	// Mutating the caller's slice must not corrupt the index.
	vec[0] = 0
	vec[1] = 1

	hits, err := idx.QueryNearest(ctx, "alice", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
}

func TestIndex_DeleteIsIdempotent(t *testing.T) {
	idx, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, 1, "alice", []float32{1, 0}))
	require.NoError(t, idx.Delete(ctx, 1))
	require.NoError(t, idx.Delete(ctx, 1))

	hits, err := idx.QueryNearest(ctx, "alice", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical direction", []float32{1, 0}, []float32{2, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"zero vector maps to max", []float32{0, 0}, []float32{1, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineDistance(tt.a, tt.b), 1e-6)
		})
	}
}
