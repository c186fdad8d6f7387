// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - EmbeddingService: Generates vector embeddings from text
//   - KnowledgeStore: Persists and searches knowledge records
//   - DocumentReader: Extracts text and metadata from a source document
//   - ReaderRegistry: Selects the reader for a file
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or reader package
package driven
