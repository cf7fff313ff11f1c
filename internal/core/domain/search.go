package domain

// Top-k bounds for retrieval. Values outside the range are a validation
// error, not silently clamped.
const (
	MinTopK = 1
	MaxTopK = 20
)

// NoContextMarker is the sentinel context returned by the assembler when
// no candidates exist. The answer generator treats it as "skip the model
// call and answer that nothing relevant was found".
const NoContextMarker = "<<no-context>>"

// RetrievalCandidate is a single ranked retrieval hit.
// Candidates are produced fresh per query and never persisted.
type RetrievalCandidate struct {
	// NoteID is the matched note.
	NoteID int64

	// Title is the note title.
	Title string

	// Content is the full note body, used for context assembly.
	Content string

	// Excerpt is a short display snippet of the content.
	Excerpt string

	// Similarity is the cosine similarity score, clamped to [0,1].
	Similarity float64
}

// Citation links a claim in a generated answer back to a source note.
type Citation struct {
	// Marker is the inline reference number, assigned in context
	// inclusion order starting at 1.
	Marker int

	// NoteID is the cited note.
	NoteID int64

	// Title is the note title.
	Title string

	// Excerpt is a short snippet of the cited content.
	Excerpt string

	// Similarity is the retrieval score of the cited note.
	Similarity float64
}

// Answer is a generated response with its supporting citations.
// Citations contains exactly the markers that appear in the text,
// ordered by first appearance.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Citations are the sources actually referenced by the text.
	Citations []Citation
}
