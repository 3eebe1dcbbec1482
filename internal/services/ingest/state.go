package ingest

// State is a stage of the ingestion pipeline. Stages run strictly in
// order; the transition table below declares how failure in each stage is
// handled.
type State int

const (
	StateValidating State = iota
	StateBlobPersisting
	StateMetadataPersisting
	StateChunking
	StateIndexing
	StateDone
)

var stateNames = map[State]string{
	StateValidating:         "validating",
	StateBlobPersisting:     "blob_persisting",
	StateMetadataPersisting: "metadata_persisting",
	StateChunking:           "chunking",
	StateIndexing:           "indexing",
	StateDone:               "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// fatalStates marks the stages whose failure aborts the pipeline after
// compensation. Once chunk rows are persisted the document is usable for
// exact retrieval, so indexing failure is recorded on the result rather
// than rolling anything back.
var fatalStates = map[State]bool{
	StateValidating:         true,
	StateBlobPersisting:     true,
	StateMetadataPersisting: true,
	StateChunking:           true,
	StateIndexing:           false,
}

// Fatal reports whether failure in this state aborts the pipeline.
func (s State) Fatal() bool {
	return fatalStates[s]
}
