package models

import (
	"encoding/json"
	"errors"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = errors.New("no messages in queue")

// Task types routed through the queue.
const (
	TaskTypeDocumentProcess = "document_process"
	TaskTypeDocumentDelete  = "document_delete"
)

// QueueMessage is the structure stored in the queue.
// Keep it simple - just enough to route the task.
type QueueMessage struct {
	TaskID  string          `json:"task_id"` // External task id, also the poll token
	Type    string          `json:"type"`    // Task type for executor routing
	Payload json.RawMessage `json:"payload"` // Task-specific data (passed through)
}

// ProcessDocumentPayload carries everything the ingestion executor needs.
// The raw file bytes are on disk already; the payload references them.
type ProcessDocumentPayload struct {
	TopicID     string `json:"topic_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`

	Title           string `json:"title,omitempty"`
	Author          string `json:"author,omitempty"`
	DOI             string `json:"doi,omitempty"`
	Journal         string `json:"journal,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`

	// StagedPath is where the upload handler wrote the raw bytes before
	// enqueueing. The ingest pipeline moves them to their final path.
	StagedPath string `json:"staged_path"`
}

// DeleteDocumentPayload identifies the document for an async delete.
type DeleteDocumentPayload struct {
	DocumentID string `json:"document_id"`
}
