package models

import "time"

// Chunk is one citable span of extracted text. Order is contiguous from 1
// within a document. Chunks are created and deleted in bulk with their
// document, never individually.
type Chunk struct {
	ID         string `json:"id" badgerhold:"key"` // chunk_{uuid}
	Text       string `json:"text"`
	Order      int    `json:"order"`
	PageNumber *int   `json:"page_number,omitempty"`
	Section    string `json:"section,omitempty"`

	// Metadata carries document_id and topic_id back-references so a
	// vector match can be traced without a second lookup.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	DocumentID string    `json:"document_id" badgerhold:"index"`
	TopicID    string    `json:"topic_id" badgerhold:"index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
