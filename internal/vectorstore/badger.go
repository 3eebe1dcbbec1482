package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// VectorRecord is one stored vector with its denormalized payload.
type VectorRecord struct {
	Collection string `badgerhold:"index"`
	PointID    string
	Text       string
	Metadata   map[string]interface{}
	Vector     []float32
}

// CollectionMeta records a collection's fixed dimension and metric.
type CollectionMeta struct {
	Name      string
	Dimension int
	Metric    string
	CreatedAt time.Time
}

// BadgerStore is the embedded vector backend. Rows live in the shared
// badgerhold store next to the metadata tables. Below the index threshold
// every search is a flat scan; once a collection crosses the threshold a
// coarse inverted-bucket index is built in memory and searches probe only
// the nearest buckets. The threshold is re-checked on CreateCollection, so
// a collection that grows past it picks up the index on the next create
// call rather than failing.
type BadgerStore struct {
	store     *badgerhold.Store
	threshold int
	logger    arbor.ILogger

	mu      sync.Mutex
	indexes map[string]*bucketIndex
}

// NewBadgerStore creates the embedded backend on an already-open store.
func NewBadgerStore(store *badgerhold.Store, indexThreshold int, logger arbor.ILogger) *BadgerStore {
	if indexThreshold <= 0 {
		indexThreshold = 10000
	}
	return &BadgerStore{
		store:     store,
		threshold: indexThreshold,
		logger:    logger,
		indexes:   make(map[string]*bucketIndex),
	}
}

func (s *BadgerStore) Name() string { return "badger" }

func (s *BadgerStore) recordKey(collection, id string) string {
	return "vec:" + collection + ":" + id
}

func (s *BadgerStore) metaKey(collection string) string {
	return "veccol:" + collection
}

func (s *BadgerStore) CreateCollection(ctx context.Context, name string, dimension int, reset bool) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", models.ErrValidation)
	}

	var meta CollectionMeta
	err := s.store.Get(s.metaKey(name), &meta)
	switch {
	case err == badgerhold.ErrNotFound:
		meta = CollectionMeta{
			Name:      name,
			Dimension: dimension,
			Metric:    MetricCosine,
			CreatedAt: time.Now(),
		}
		if err := s.store.Upsert(s.metaKey(name), &meta); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("failed to read collection %s: %w", name, err)
	default:
		if meta.Dimension != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d", models.ErrValidation, name, meta.Dimension, dimension)
		}
		if reset {
			if err := s.dropRecords(name); err != nil {
				return err
			}
		}
	}

	s.maybeBuildIndex(name)
	return nil
}

func (s *BadgerStore) DeleteCollection(ctx context.Context, name string) error {
	if err := s.dropRecords(name); err != nil {
		return err
	}
	if err := s.store.Delete(s.metaKey(name), &CollectionMeta{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

func (s *BadgerStore) dropRecords(name string) error {
	if err := s.store.DeleteMatching(&VectorRecord{}, badgerhold.Where("Collection").Eq(name).Index("Collection")); err != nil {
		return fmt.Errorf("failed to drop vectors for %s: %w", name, err)
	}
	s.invalidateIndex(name)
	return nil
}

func (s *BadgerStore) CollectionInfo(ctx context.Context, name string) (*models.CollectionInfo, error) {
	var meta CollectionMeta
	if err := s.store.Get(s.metaKey(name), &meta); err != nil {
		if err == badgerhold.ErrNotFound {
			return &models.CollectionInfo{Name: name, Exists: false}, nil
		}
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}

	count, err := s.store.Count(&VectorRecord{}, badgerhold.Where("Collection").Eq(name).Index("Collection"))
	if err != nil {
		return nil, fmt.Errorf("failed to count vectors for %s: %w", name, err)
	}

	return &models.CollectionInfo{
		Name:      name,
		Exists:    true,
		RowCount:  int(count),
		Dimension: meta.Dimension,
	}, nil
}

func (s *BadgerStore) InsertMany(ctx context.Context, name string, ids []string, texts []string, metadata []map[string]interface{}, vectors [][]float32) error {
	n := len(ids)
	if len(texts) != n || len(metadata) != n || len(vectors) != n {
		return fmt.Errorf("%w: ids=%d texts=%d metadata=%d vectors=%d", models.ErrArgumentMismatch, n, len(texts), len(metadata), len(vectors))
	}

	var meta CollectionMeta
	if err := s.store.Get(s.metaKey(name), &meta); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: collection %s", models.ErrNotFound, name)
		}
		return fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	// All-or-nothing: validate every vector before the first write
	for i, vec := range vectors {
		if len(vec) != meta.Dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, collection %s expects %d", models.ErrArgumentMismatch, i, len(vec), name, meta.Dimension)
		}
	}

	for i := 0; i < n; i++ {
		record := &VectorRecord{
			Collection: name,
			PointID:    ids[i],
			Text:       texts[i],
			Metadata:   metadata[i],
			Vector:     vectors[i],
		}
		if err := s.store.Upsert(s.recordKey(name, ids[i]), record); err != nil {
			return fmt.Errorf("failed to insert vector %s: %w", ids[i], err)
		}
	}

	s.invalidateIndex(name)
	return nil
}

func (s *BadgerStore) SearchByVector(ctx context.Context, name string, vector []float32, limit int) ([]models.VectorMatch, error) {
	var meta CollectionMeta
	if err := s.store.Get(s.metaKey(name), &meta); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: collection %s", models.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	if limit <= 0 {
		limit = 10
	}

	candidates, err := s.candidateRecords(name, vector)
	if err != nil {
		return nil, err
	}

	matches := make([]models.VectorMatch, 0, len(candidates))
	for i := range candidates {
		matches = append(matches, models.VectorMatch{
			ID:       candidates[i].PointID,
			Score:    score(meta.Metric, vector, candidates[i].Vector),
			Text:     candidates[i].Text,
			Metadata: candidates[i].Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *BadgerStore) DeleteByIDs(ctx context.Context, name string, ids []string) error {
	for _, id := range ids {
		if err := s.store.Delete(s.recordKey(name, id), &VectorRecord{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to delete vector %s: %w", id, err)
		}
	}
	s.invalidateIndex(name)
	return nil
}

func (s *BadgerStore) Close() error {
	// The underlying store is shared and closed by the storage manager
	return nil
}

// candidateRecords returns the rows a search must score: bucket members
// when the coarse index is live, every row otherwise.
func (s *BadgerStore) candidateRecords(name string, vector []float32) ([]VectorRecord, error) {
	s.mu.Lock()
	idx := s.indexes[name]
	s.mu.Unlock()

	if idx != nil {
		keys := idx.probe(vector)
		records := make([]VectorRecord, 0, len(keys))
		for _, key := range keys {
			var rec VectorRecord
			if err := s.store.Get(key, &rec); err != nil {
				if err == badgerhold.ErrNotFound {
					continue
				}
				return nil, fmt.Errorf("failed to read vector: %w", err)
			}
			records = append(records, rec)
		}
		return records, nil
	}

	var records []VectorRecord
	if err := s.store.Find(&records, badgerhold.Where("Collection").Eq(name).Index("Collection")); err != nil {
		return nil, fmt.Errorf("failed to scan vectors for %s: %w", name, err)
	}
	return records, nil
}

// maybeBuildIndex builds the coarse bucket index for a collection whose
// row count has reached the threshold.
func (s *BadgerStore) maybeBuildIndex(name string) {
	count, err := s.store.Count(&VectorRecord{}, badgerhold.Where("Collection").Eq(name).Index("Collection"))
	if err != nil || int(count) < s.threshold {
		return
	}

	s.mu.Lock()
	if s.indexes[name] != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	var records []VectorRecord
	if err := s.store.Find(&records, badgerhold.Where("Collection").Eq(name).Index("Collection")); err != nil {
		s.logger.Warn().Err(err).Str("collection", name).Msg("Failed to load vectors for index build")
		return
	}

	idx := buildBucketIndex(records, func(r *VectorRecord) string {
		return s.recordKey(name, r.PointID)
	})
	s.mu.Lock()
	s.indexes[name] = idx
	s.mu.Unlock()

	s.logger.Info().
		Str("collection", name).
		Int("rows", len(records)).
		Int("buckets", len(idx.centroids)).
		Msg("Built coarse vector index")
}

func (s *BadgerStore) invalidateIndex(name string) {
	s.mu.Lock()
	delete(s.indexes, name)
	s.mu.Unlock()
}

var _ interfaces.VectorStore = (*BadgerStore)(nil)
