package common

import (
	"github.com/google/uuid"
)

// NewTopicID generates a unique topic ID with the "topic_" prefix
// Format: topic_<uuid>
func NewTopicID() string {
	return "topic_" + uuid.New().String()
}

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewChunkID generates a unique chunk ID with the "chunk_" prefix
// Format: chunk_<uuid>
func NewChunkID() string {
	return "chunk_" + uuid.New().String()
}

// NewTaskID generates a unique task execution ID with the "task_" prefix
// Format: task_<uuid>
func NewTaskID() string {
	return "task_" + uuid.New().String()
}
