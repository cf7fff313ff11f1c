// Package memory provides an in-memory note store, useful for tests and
// ephemeral vaults.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
)

// Ensure NoteStore implements the interface.
var _ driven.NoteStore = (*NoteStore)(nil)

// NoteStore is an in-memory implementation of driven.NoteStore.
// Safe for concurrent use.
type NoteStore struct {
	mu     sync.RWMutex
	nextID int64
	notes  map[int64]domain.Note
}

// NewNoteStore creates an empty in-memory note store.
func NewNoteStore() *NoteStore {
	return &NoteStore{
		nextID: 1,
		notes:  make(map[int64]domain.Note),
	}
}

// Save stores or updates a note. A zero ID inserts and assigns the ID.
func (s *NoteStore) Save(_ context.Context, note *domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.ID == 0 {
		note.ID = s.nextID
		s.nextID++
	} else {
		existing, ok := s.notes[note.ID]
		if !ok || existing.OwnerID != note.OwnerID {
			return domain.ErrNotFound
		}
	}

	s.notes[note.ID] = *note
	return nil
}

// Get retrieves a note by ID, scoped to its owner.
func (s *NoteStore) Get(_ context.Context, ownerID string, id int64) (*domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, ok := s.notes[id]
	if !ok || note.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &note, nil
}

// List returns all of an owner's notes, newest first.
func (s *NoteStore) List(_ context.Context, ownerID string) ([]domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := []domain.Note{}
	for _, note := range s.notes {
		if note.OwnerID == ownerID {
			notes = append(notes, note)
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID > notes[j].ID
	})
	return notes, nil
}

// Delete removes a note, scoped to its owner.
func (s *NoteStore) Delete(_ context.Context, ownerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok || note.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

// Close releases resources.
func (s *NoteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = nil
	return nil
}
