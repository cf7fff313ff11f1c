// Package services implements the application's core use cases: note
// lifecycle management, semantic retrieval, context assembly, answer
// generation and retrieval evaluation. Services depend only on the driven
// ports and are wired with concrete adapters at startup.
package services
