package interfaces

import (
	"context"

	"github.com/ternarybob/citatum/internal/models"
)

// VectorStore is the port every vector backend implements in full. The
// backend is chosen once at startup from configuration; callers never probe
// capabilities at runtime. Scores returned by SearchByVector are normalized
// so that higher always means more similar.
type VectorStore interface {
	// CreateCollection creates the named collection at the given dimension,
	// or reuses an existing one. With reset, existing contents are dropped
	// first.
	CreateCollection(ctx context.Context, name string, dimension int, reset bool) error

	// DeleteCollection removes the collection and everything in it.
	// Deleting an absent collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// CollectionInfo reports existence, row count and dimension.
	CollectionInfo(ctx context.Context, name string) (*models.CollectionInfo, error)

	// InsertMany upserts records in bulk. All four slices must be the same
	// length; a mismatch fails with models.ErrArgumentMismatch before any
	// write.
	InsertMany(ctx context.Context, name string, ids []string, texts []string, metadata []map[string]interface{}, vectors [][]float32) error

	// SearchByVector returns up to limit nearest neighbors.
	SearchByVector(ctx context.Context, name string, vector []float32, limit int) ([]models.VectorMatch, error)

	// DeleteByIDs removes records by id, ignoring ids that are absent.
	DeleteByIDs(ctx context.Context, name string, ids []string) error

	// Name identifies the backend ("badger", "qdrant").
	Name() string

	Close() error
}
