package models

import (
	"strings"
	"time"
)

// Document type discriminators, derived from the upload content type.
const (
	DocumentTypePDF = "pdf"
	DocumentTypeTXT = "txt"
)

// Document is the metadata row for one uploaded file. The row is created
// only after the blob write succeeds, so a Document always points at a file
// that existed at creation time. Rows are removed only through the deletion
// coordinator so the cascade order holds.
type Document struct {
	ID   string `json:"id" badgerhold:"key"` // doc_{uuid}
	Name string `json:"name"`                // public form: {random}*{clean}
	Type string `json:"type"`                // pdf or txt
	Size int64  `json:"size"`                // byte length of the stored blob

	// Bibliographic fields supplied at upload, all optional.
	Title           string `json:"title,omitempty"`
	Author          string `json:"author,omitempty"`
	DOI             string `json:"doi,omitempty"`
	Journal         string `json:"journal,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`

	TopicID   string    `json:"topic_id" badgerhold:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredName converts the public name {random}*{clean} to the on-disk form
// {random}_{clean}. Names without a separator are returned unchanged.
func (d *Document) StoredName() string {
	return strings.Replace(d.Name, "*", "_", 1)
}
