package domain

import "time"

// EvalQuery is a labelled query for offline retrieval evaluation.
// Loaded once from a dataset and read-only during a harness run.
type EvalQuery struct {
	// Query is the search text.
	Query string `json:"query"`

	// RelevantNoteIDs is the ground-truth set of relevant notes.
	RelevantNoteIDs []int64 `json:"relevant_note_ids"`

	// Description optionally explains what the query tests.
	Description string `json:"description,omitempty"`
}

// EvalReport aggregates retrieval quality metrics across a query set.
// Reports are read-only summaries; re-running against an unchanged corpus
// yields the same metric values.
type EvalReport struct {
	// RunID uniquely identifies this harness run.
	RunID string `json:"run_id"`

	// K is the cutoff used for precision and recall.
	K int `json:"k"`

	// TotalQueries is the number of evaluated queries.
	TotalQueries int `json:"total_queries"`

	// MeanPrecisionAtK is the mean precision@k across queries.
	MeanPrecisionAtK float64 `json:"mean_precision_at_k"`

	// MeanRecallAtK is the mean recall@k across queries.
	MeanRecallAtK float64 `json:"mean_recall_at_k"`

	// MRR is the mean reciprocal rank across queries.
	MRR float64 `json:"mrr"`

	// MeanLatencyMs is the mean wall-clock search latency per query.
	MeanLatencyMs float64 `json:"mean_latency_ms"`

	// Timestamp is when the run completed.
	Timestamp time.Time `json:"timestamp"`
}
