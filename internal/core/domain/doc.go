// Package domain defines the core business entities for the corpus knowledge
// pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded span of source text prepared for embedding
//   - KnowledgeRecord: The persisted unit of retrievable knowledge
//   - RetrievalResult: A record scored against a query vector
//   - ExtractedDocument: Reader output before chunking
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
