package models

// CollectionInfo describes one vector collection.
type CollectionInfo struct {
	Name      string `json:"name"`
	Exists    bool   `json:"exists"`
	RowCount  int    `json:"row_count"`
	Dimension int    `json:"dimension"`
}

// VectorMatch is one raw nearest-neighbor result from a vector store.
// Score is normalized so that higher always means more similar, regardless
// of the backend's distance metric.
type VectorMatch struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RetrievedEvidence is one search hit enriched with chunk provenance.
type RetrievedEvidence struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	TopicID    string  `json:"topic_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	PageNumber *int    `json:"page_number,omitempty"`
	Section    string  `json:"section,omitempty"`
}

// Citation is one piece of evidence attributed to a claim.
type Citation struct {
	ChunkText  string  `json:"chunk_text"`
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	PageNumber *int    `json:"page_number,omitempty"`
	Section    string  `json:"section,omitempty"`
	Score      float64 `json:"score"`
}

// ClaimVerification partitions retrieved evidence for a claim by similarity
// score. The partition is a retrieval heuristic, not entailment: a chunk
// above the threshold is near the claim in embedding space, nothing more.
type ClaimVerification struct {
	Claim      string     `json:"claim"`
	Supporting []Citation `json:"supporting"`
	Refuting   []Citation `json:"refuting"`
}

// IngestResult summarizes one completed document ingestion.
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	FileID        string `json:"file_id"`
	ChunksCount   int    `json:"chunks_count"`
	ChunksIndexed int    `json:"chunks_indexed"`
	IndexError    string `json:"index_error,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
}

// DeletionResult reports what a cascading document delete actually removed.
// Partial failure in the early steps is reflected here instead of raised.
type DeletionResult struct {
	DeletedChunks     int  `json:"deleted_chunks"`
	DeletedEmbeddings int  `json:"deleted_embeddings"`
	FileDeleted       bool `json:"file_deleted"`
}
