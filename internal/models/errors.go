package models

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned by the text extractor for MIME types it
// cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ExtractionError means a file could not be converted to text. Ingestion
// aborts and the document transitions to failed.
type ExtractionError struct {
	MimeType string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.MimeType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingError means the external embedding model failed. During ingestion
// the owning document goes to failed; at query time the search path aborts.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// SearchError means a corpus index was unreachable. The document corpus falls
// back to keyword search; the regulatory corpus contributes zero results.
type SearchError struct {
	Corpus string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s corpus: %v", e.Corpus, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// GenerationError means the language model failed. Never propagated to the
// caller: the answer is replaced with a fixed language-appropriate fallback.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidationError rejects malformed input before any external call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
