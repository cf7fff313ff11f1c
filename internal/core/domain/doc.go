// Package domain contains the core business entities and rules for the
// vault: notes, embedding vectors, retrieval candidates, citations, and
// evaluation types. It has no dependencies on adapters or infrastructure.
package domain
