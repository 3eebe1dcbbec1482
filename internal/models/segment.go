package models

// Segment is one unit of extracted text handed to the chunker: a page for
// PDFs, the whole body for plain text.
type Segment struct {
	Text       string
	PageNumber *int
	Section    string
}

// Piece is one chunk of text produced by the splitter, before it becomes a
// persisted Chunk row. Provenance comes from the first segment of the
// source document, so page attribution is coarse for multi-page input.
type Piece struct {
	Text       string
	PageNumber *int
	Section    string
}
