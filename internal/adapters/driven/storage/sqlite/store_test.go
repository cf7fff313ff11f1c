package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testNote(ownerID, title string) *domain.Note {
	now := time.Now().UTC()
	return &domain.Note{
		OwnerID:   ownerID,
		Title:     title,
		Content:   "content of " + title,
		Tags:      []string{"test"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestNewStore_Migrates(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, store.Path())
	require.NoError(t, store.Close())

	// Reopening the same database applies no migration twice.
	again, err := NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}

func TestNoteStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	ctx := context.Background()

	note := testNote("alice", "Groceries")
	note.Embedding = domain.NewVector([]float32{0.1, 0.2, 0.3})
	require.NoError(t, notes.Save(ctx, note))
	assert.NotZero(t, note.ID)

	got, err := notes.Get(ctx, "alice", note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Title)
	assert.Equal(t, note.Content, got.Content)
	assert.Equal(t, []string{"test"}, got.Tags)
	require.True(t, got.Embedding.Present())
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, got.Embedding.Values(), 1e-6)
	assert.WithinDuration(t, note.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestNoteStore_AbsentEmbeddingRoundtrips(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	ctx := context.Background()

	note := testNote("alice", "Plain")
	require.NoError(t, notes.Save(ctx, note))

	got, err := notes.Get(ctx, "alice", note.ID)
	require.NoError(t, err)
	assert.False(t, got.Embedding.Present())
}

func TestNoteStore_OwnerScoping(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	ctx := context.Background()

	note := testNote("alice", "Private")
	require.NoError(t, notes.Save(ctx, note))

	_, err := notes.Get(ctx, "bob", note.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, notes.Delete(ctx, "bob", note.ID), domain.ErrNotFound)
}

func TestNoteStore_Update(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	ctx := context.Background()

	note := testNote("alice", "Draft")
	require.NoError(t, notes.Save(ctx, note))

	note.Title = "Final"
	note.Tags = []string{"done", "reviewed"}
	note.UpdatedAt = time.Now().UTC()
	require.NoError(t, notes.Save(ctx, note))

	got, err := notes.Get(ctx, "alice", note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, []string{"done", "reviewed"}, got.Tags)
}

func TestNoteStore_UpdateMissing(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()

	phantom := testNote("alice", "Phantom")
	phantom.ID = 4242
	assert.ErrorIs(t, notes.Save(context.Background(), phantom), domain.ErrNotFound)
}

func TestNoteStore_ListNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	ctx := context.Background()
	base := time.Now().UTC()

	old := testNote("alice", "Old")
	old.CreatedAt = base.Add(-2 * time.Hour)
	recent := testNote("alice", "Recent")
	recent.CreatedAt = base
	other := testNote("bob", "Other")

	for _, n := range []*domain.Note{old, recent, other} {
		require.NoError(t, notes.Save(ctx, n))
	}

	list, err := notes.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Recent", list[0].Title)
	assert.Equal(t, "Old", list[1].Title)
}

func TestVectorIndex_UpsertAndQuery(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	index := store.VectorIndex(2)
	ctx := context.Background()

	n1 := testNote("alice", "East")
	n2 := testNote("alice", "North")
	require.NoError(t, notes.Save(ctx, n1))
	require.NoError(t, notes.Save(ctx, n2))

	require.NoError(t, index.Upsert(ctx, n1.ID, "alice", []float32{1, 0}))
	require.NoError(t, index.Upsert(ctx, n2.ID, "alice", []float32{0, 1}))

	hits, err := index.QueryNearest(ctx, "alice", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, n1.ID, hits[0].NoteID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
	assert.Equal(t, n2.ID, hits[1].NoteID)
	assert.InDelta(t, 1, hits[1].Distance, 1e-6)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	store := setupTestStore(t)
	index := store.VectorIndex(3)
	ctx := context.Background()

	err := index.Upsert(ctx, 1, "alice", []float32{1, 0})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = index.QueryNearest(ctx, "alice", []float32{1}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_OwnerIsolation(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	index := store.VectorIndex(2)
	ctx := context.Background()

	mine := testNote("alice", "Mine")
	theirs := testNote("bob", "Theirs")
	require.NoError(t, notes.Save(ctx, mine))
	require.NoError(t, notes.Save(ctx, theirs))

	require.NoError(t, index.Upsert(ctx, mine.ID, "alice", []float32{1, 0}))
	require.NoError(t, index.Upsert(ctx, theirs.ID, "bob", []float32{1, 0}))

	hits, err := index.QueryNearest(ctx, "alice", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, mine.ID, hits[0].NoteID)
}

func TestVectorIndex_DeleteCascadesWithNote(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	index := store.VectorIndex(2)
	ctx := context.Background()

	note := testNote("alice", "Linked")
	require.NoError(t, notes.Save(ctx, note))
	require.NoError(t, index.Upsert(ctx, note.ID, "alice", []float32{1, 0}))

	// Deleting the note removes its vector row via the foreign key.
	require.NoError(t, notes.Delete(ctx, "alice", note.ID))

	hits, err := index.QueryNearest(ctx, "alice", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorIndex_ExplicitDelete(t *testing.T) {
	store := setupTestStore(t)
	notes := store.NoteStore()
	index := store.VectorIndex(2)
	ctx := context.Background()

	note := testNote("alice", "Indexed")
	require.NoError(t, notes.Save(ctx, note))
	require.NoError(t, index.Upsert(ctx, note.ID, "alice", []float32{1, 0}))

	require.NoError(t, index.Delete(ctx, note.ID))
	// Deleting an absent vector is a no-op.
	require.NoError(t, index.Delete(ctx, note.ID))

	hits, err := index.QueryNearest(ctx, "alice", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorEncoding_Roundtrip(t *testing.T) {
	values := []float32{0.25, -1.5, 3.75, 0}
	decoded := decodeVector(encodeVector(values))
	assert.Equal(t, values, decoded)
}
