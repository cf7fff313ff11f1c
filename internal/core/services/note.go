package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vaulted-cli/internal/logger"
)

// Ensure NoteService implements the interface.
var _ driving.NoteService = (*NoteService)(nil)

// Reindex batching limits.
const (
	// reindexBatchSize is the number of notes per EmbedBatch call.
	reindexBatchSize = 64

	// reindexConcurrency bounds in-flight embedding batches.
	reindexConcurrency = 4
)

// NoteService manages the note lifecycle. Saving a note embeds its
// content and upserts the vector index; embedding failures degrade to an
// absent vector so CRUD keeps working when the provider is down.
type NoteService struct {
	noteStore        driven.NoteStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
}

// NewNoteService creates a new note service.
// The vectorIndex and embeddingService parameters are optional (can be
// nil); without them notes are stored with absent embeddings.
func NewNoteService(
	noteStore driven.NoteStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
) *NoteService {
	return &NoteService{
		noteStore:        noteStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
	}
}

// Create saves a new note and embeds its content.
func (s *NoteService) Create(
	ctx context.Context, ownerID, title, content string, tags []string,
) (*domain.Note, error) {
	now := time.Now().UTC()
	note := &domain.Note{
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		Tags:      tags,
		Embedding: domain.AbsentVector(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := note.Validate(); err != nil {
		return nil, fmt.Errorf("validate note: %w", err)
	}

	// Save first so the note survives even if embedding fails.
	if err := s.noteStore.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}

	s.embedAndIndex(ctx, note)
	return note, nil
}

// Get retrieves a note by ID.
func (s *NoteService) Get(ctx context.Context, ownerID string, id int64) (*domain.Note, error) {
	return s.noteStore.Get(ctx, ownerID, id)
}

// List returns all of an owner's notes.
func (s *NoteService) List(ctx context.Context, ownerID string) ([]domain.Note, error) {
	return s.noteStore.List(ctx, ownerID)
}

// Update replaces a note's content and re-embeds it.
func (s *NoteService) Update(
	ctx context.Context, ownerID string, id int64, title, content string, tags []string,
) (*domain.Note, error) {
	note, err := s.noteStore.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}

	note.Title = title
	note.Content = content
	note.Tags = tags
	note.Embedding = domain.AbsentVector()
	note.UpdatedAt = time.Now().UTC()
	if err := note.Validate(); err != nil {
		return nil, fmt.Errorf("validate note: %w", err)
	}

	if err := s.noteStore.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}

	s.embedAndIndex(ctx, note)
	return note, nil
}

// Delete removes a note and its vector index entry, so no orphan vector
// outlives the note.
func (s *NoteService) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := s.noteStore.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}

	if s.vectorIndex != nil {
		if err := s.vectorIndex.Delete(ctx, id); err != nil {
			// The note is gone; a stale vector is skipped at query time.
			logger.Warn("Delete vector for note %d failed: %v", id, err)
		}
	}
	return nil
}

// Reindex embeds every note missing a vector, batching EmbedBatch calls
// with bounded concurrency. Batch results map back to notes by input
// order, which EmbedBatch guarantees.
func (s *NoteService) Reindex(ctx context.Context, ownerID string) (int, error) {
	if s.embeddingService == nil {
		return 0, fmt.Errorf("%w: embedding service not configured", domain.ErrProviderUnavailable)
	}

	notes, err := s.noteStore.List(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list notes: %w", err)
	}

	var pending []domain.Note
	for _, note := range notes {
		if !note.Embedding.Present() {
			pending = append(pending, note)
		}
	}
	if len(pending) == 0 {
		logger.Info("Reindex: nothing to embed")
		return 0, nil
	}
	logger.Info("Reindex: embedding %d of %d notes", len(pending), len(notes))

	embedded := make([][][]float32, (len(pending)+reindexBatchSize-1)/reindexBatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reindexConcurrency)

	for b := range embedded {
		b := b
		start := b * reindexBatchSize
		end := min(start+reindexBatchSize, len(pending))
		batch := pending[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, note := range batch {
				texts[i] = note.Content
			}
			vectors, err := s.embeddingService.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("%w: embed batch: %w", domain.ErrProviderUnavailable, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed batch: got %d vectors for %d texts", len(vectors), len(batch))
			}
			embedded[b] = vectors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// Persist sequentially; the index upsert and note save stay paired.
	count := 0
	for b, vectors := range embedded {
		for i, vec := range vectors {
			note := pending[b*reindexBatchSize+i]
			note.Embedding = domain.NewVector(vec)
			if err := s.indexNote(ctx, &note); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// embedAndIndex embeds the note content and stores the vector. Failures
// are logged and leave the embedding absent - writes are all-or-nothing,
// never a partial vector.
func (s *NoteService) embedAndIndex(ctx context.Context, note *domain.Note) {
	if s.embeddingService == nil {
		logger.Debug("Embedding service not configured, note %d saved without vector", note.ID)
		return
	}

	vec, err := s.embeddingService.Embed(ctx, note.Content)
	if err != nil {
		logger.Warn("Embed note %d failed, keeping it searchable-by-nothing: %v", note.ID, err)
		return
	}
	if dims := s.embeddingService.Dimensions(); len(vec) != dims {
		logger.Warn("%v: note %d got %d dimensions, want %d", domain.ErrDimensionMismatch, note.ID, len(vec), dims)
		return
	}

	note.Embedding = domain.NewVector(vec)
	if err := s.indexNote(ctx, note); err != nil {
		logger.Warn("Index note %d failed: %v", note.ID, err)
		note.Embedding = domain.AbsentVector()
	}
}

// indexNote upserts the note's vector and persists the note with it.
func (s *NoteService) indexNote(ctx context.Context, note *domain.Note) error {
	if s.vectorIndex != nil {
		if err := s.vectorIndex.Upsert(ctx, note.ID, note.OwnerID, note.Embedding.Values()); err != nil {
			return fmt.Errorf("upsert vector: %w", err)
		}
	}
	if err := s.noteStore.Save(ctx, note); err != nil {
		return fmt.Errorf("save embedded note: %w", err)
	}
	return nil
}
