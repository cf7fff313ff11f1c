package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/vaulted-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/vaulted-cli/internal/core/domain"
	"github.com/custodia-labs/vaulted-cli/internal/core/ports/driven"
)

// timeFormat is the canonical timestamp encoding in the database.
const timeFormat = time.RFC3339Nano

// Store is a unified SQLite-based storage that backs both the note store
// and the vector index through wrapper types sharing one database file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.vaulted/data/vault.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vaulted", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vault.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// NoteStore returns a NoteStore interface backed by this store.
func (s *Store) NoteStore() driven.NoteStore {
	return &noteStore{store: s}
}

// VectorIndex returns a VectorIndex backed by this store.
// Vectors must have exactly the given dimension.
func (s *Store) VectorIndex(dimension int) driven.VectorIndex {
	return &vectorIndex{store: s, dimension: dimension}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Note Store ====================

// noteStore implements driven.NoteStore.
type noteStore struct {
	store *Store
}

var _ driven.NoteStore = (*noteStore)(nil)

// Save stores or updates a note. A zero ID inserts and assigns the ID.
func (s *noteStore) Save(ctx context.Context, note *domain.Note) error {
	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	var embedding []byte
	if note.Embedding.Present() {
		embedding = encodeVector(note.Embedding.Values())
	}

	if note.ID == 0 {
		result, err := s.store.db.ExecContext(ctx, `
			INSERT INTO notes (owner_id, title, content, tags, embedding, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			note.OwnerID, note.Title, note.Content, string(tagsJSON), embedding,
			note.CreatedAt.Format(timeFormat), note.UpdatedAt.Format(timeFormat),
		)
		if err != nil {
			return fmt.Errorf("inserting note: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting note id: %w", err)
		}
		note.ID = id
		return nil
	}

	result, err := s.store.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, tags = ?, embedding = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		note.Title, note.Content, string(tagsJSON), embedding,
		note.UpdatedAt.Format(timeFormat), note.ID, note.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get retrieves a note by ID, scoped to its owner.
func (s *noteStore) Get(ctx context.Context, ownerID string, id int64) (*domain.Note, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, content, tags, embedding, created_at, updated_at
		FROM notes WHERE id = ? AND owner_id = ?`, id, ownerID)

	note, err := scanNote(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning note: %w", err)
	}
	return note, nil
}

// List returns all of an owner's notes, newest first.
func (s *noteStore) List(ctx context.Context, ownerID string) ([]domain.Note, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, owner_id, title, content, tags, embedding, created_at, updated_at
		FROM notes WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

// Delete removes a note, scoped to its owner. The vectors row cascades.
func (s *noteStore) Delete(ctx context.Context, ownerID string, id int64) error {
	result, err := s.store.db.ExecContext(ctx,
		"DELETE FROM notes WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Close is a no-op; the unified store owns the connection.
func (s *noteStore) Close() error {
	return nil
}

// scanner covers sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*domain.Note, error) {
	var note domain.Note
	var tagsJSON string
	var embedding []byte
	var createdAt, updatedAt string

	err := row.Scan(&note.ID, &note.OwnerID, &note.Title, &note.Content,
		&tagsJSON, &embedding, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &note.Tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}
	if len(embedding) > 0 {
		note.Embedding = domain.NewVector(decodeVector(embedding))
	}
	if note.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if note.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &note, nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex with an exact scan over the
// owner's stored vectors. Distances are true cosine distances, so recall
// is deterministic regardless of corpus size.
type vectorIndex struct {
	store     *Store
	dimension int
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert inserts or replaces the vector for a note.
func (v *vectorIndex) Upsert(ctx context.Context, noteID int64, ownerID string, embedding []float32) error {
	if len(embedding) != v.dimension {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(embedding), v.dimension)
	}

	_, err := v.store.db.ExecContext(ctx, `
		INSERT INTO vectors (note_id, owner_id, embedding) VALUES (?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET owner_id = excluded.owner_id, embedding = excluded.embedding`,
		noteID, ownerID, encodeVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("upserting vector: %w", err)
	}
	return nil
}

// Delete removes a note's vector. Deleting an absent note is a no-op.
func (v *vectorIndex) Delete(ctx context.Context, noteID int64) error {
	if _, err := v.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE note_id = ?", noteID); err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

// QueryNearest returns the k nearest vectors for the owner by ascending
// cosine distance. Ties break by ascending note ID.
func (v *vectorIndex) QueryNearest(
	ctx context.Context, ownerID string, query []float32, k int,
) ([]driven.VectorHit, error) {
	if len(query) != v.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(query), v.dimension)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT note_id, embedding FROM vectors WHERE owner_id = ?", ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		var noteID int64
		var blob []byte
		if err := rows.Scan(&noteID, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		hits = append(hits, driven.VectorHit{
			NoteID:   noteID,
			Distance: cosineDistance(query, decodeVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

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

// Close is a no-op; the unified store owns the connection.
func (v *vectorIndex) Close() error {
	return nil
}

// ==================== Vector encoding ====================

// encodeVector packs float32 values as little-endian bytes.
func encodeVector(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks little-endian bytes into float32 values.
func decodeVector(buf []byte) []float32 {
	values := make([]float32, len(buf)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return values
}

// cosineDistance is 1 minus the cosine of the angle between a and b,
// giving a value in [0,2]. A zero vector has no direction and maps to
// the maximum distance.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 2
	}
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
