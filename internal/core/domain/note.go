package domain

import (
	"strings"
	"time"
)

// Note is an owner-scoped text record in the vault.
// Notes are mutated only through create/update operations, which also
// re-embed the content. Deleting a note removes its vector index entry.
type Note struct {
	// ID is the store-assigned identifier, unique within the vault.
	ID int64

	// OwnerID identifies the owner. Resolution of the caller identity
	// happens outside the core; every operation is scoped to it.
	OwnerID string

	// Title is the human-readable title.
	Title string

	// Content is the full note body. This is the text that gets embedded.
	Content string

	// Tags are free-form labels.
	Tags []string

	// Embedding is the content vector. Absent when embedding failed or
	// has not run yet; the note remains fully usable either way.
	Embedding Vector

	// CreatedAt is when the note was first saved.
	CreatedAt time.Time

	// UpdatedAt is when the note was last modified.
	UpdatedAt time.Time
}

// Validate checks the fields a caller controls.
func (n *Note) Validate() error {
	if strings.TrimSpace(n.OwnerID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(n.Title) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(n.Content) == "" {
		return ErrInvalidInput
	}
	return nil
}

// Excerpt returns the first maxLen characters of the content, trimmed at
// a word boundary when possible. Purely cosmetic; never affects ranking.
func (n *Note) Excerpt(maxLen int) string {
	return MakeExcerpt(n.Content, maxLen)
}

// MakeExcerpt shortens text to at most maxLen characters, preferring to
// cut at the last space so words are not split mid-way.
func MakeExcerpt(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}

	cut := text[:maxLen]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
