// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding and LLM providers, the vector
// index, the note store, and configuration storage.
package driven
