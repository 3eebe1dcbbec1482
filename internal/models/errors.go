package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and handlers. Handlers map these
// to HTTP status codes; services wrap them with context via fmt.Errorf + %w.
var (
	// ErrValidation covers rejected input: bad ids, bad metadata, files
	// that fail the upload policy. Maps to 400.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested record does not exist. Maps to 404.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTask indicates a task with the same name, arguments and
	// external id is already registered. Maps to 409.
	ErrDuplicateTask = errors.New("task already running")

	// ErrTransient indicates a dependency (embedding provider, vector
	// store, queue) failed in a way that a retry may fix.
	ErrTransient = errors.New("transient dependency failure")

	// ErrArgumentMismatch indicates parallel slices of unequal length were
	// passed to a bulk operation. Nothing is written when this is returned.
	ErrArgumentMismatch = errors.New("argument length mismatch")

	// ErrNoEvidence indicates a search found nothing to rank: the topic has
	// no collection, the query produced no embedding, or the collection is
	// empty. Never surfaced as a server error.
	ErrNoEvidence = errors.New("no evidence available")

	// ErrEmbeddingCountMismatch indicates the embedding provider returned a
	// different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrUnsupported indicates the configured vector store backend cannot
	// perform the requested operation.
	ErrUnsupported = errors.New("operation not supported by backend")

	// ErrPathExhausted indicates unique path generation gave up after the
	// collision budget.
	ErrPathExhausted = errors.New("unable to generate unique file path")
)

// ErrFileTooLarge reports an upload exceeding the configured size limit.
func ErrFileTooLarge(size, limit int64) error {
	return fmt.Errorf("%w: file size %d exceeds limit %d", ErrValidation, size, limit)
}

// ErrUnsupportedType reports an upload with a content type outside the
// accepted set.
func ErrUnsupportedType(contentType string) error {
	return fmt.Errorf("%w: unsupported content type %q", ErrValidation, contentType)
}
