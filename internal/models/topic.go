package models

import "time"

// Topic is a research area that scopes documents, chunks and one vector
// collection. Names are globally unique; IDs are immutable.
type Topic struct {
	ID          string    `json:"id" badgerhold:"key"` // topic_{uuid}
	Name        string    `json:"name" badgerhold:"unique"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
