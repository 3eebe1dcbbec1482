package vectorstore

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// NewFromConfig selects the vector backend once at startup. The set is
// closed: an unknown provider is a configuration error, and the chosen
// backend serves every collection for the life of the process.
func NewFromConfig(config *common.VectorStoreConfig, store *badgerhold.Store, logger arbor.ILogger) (interfaces.VectorStore, error) {
	switch config.Provider {
	case "badger":
		return NewBadgerStore(store, config.IVFThreshold, logger), nil
	case "qdrant":
		return NewQdrantStore(&config.Qdrant, logger), nil
	default:
		return nil, fmt.Errorf("unknown vector store provider: %s", config.Provider)
	}
}
