package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ChunkStorage implements the ChunkStorage interface for Badger
type ChunkStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChunkStorage creates a new ChunkStorage instance
func NewChunkStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChunkStorage {
	return &ChunkStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ChunkStorage) CreateMany(ctx context.Context, chunks []*models.Chunk) error {
	now := time.Now()
	for _, chunk := range chunks {
		if chunk.ID == "" {
			return fmt.Errorf("%w: chunk ID is required", models.ErrValidation)
		}
		if chunk.DocumentID == "" {
			return fmt.Errorf("%w: chunk document ID is required", models.ErrValidation)
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		chunk.UpdatedAt = now

		if err := s.db.Store().Insert(chunk.ID, chunk); err != nil {
			return fmt.Errorf("failed to create chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}

func (s *ChunkStorage) Get(ctx context.Context, id string) (*models.Chunk, error) {
	var chunk models.Chunk
	if err := s.db.Store().Get(id, &chunk); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: chunk %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return &chunk, nil
}

func (s *ChunkStorage) GetByDocument(ctx context.Context, documentID string) ([]*models.Chunk, error) {
	var chunks []models.Chunk
	if err := s.db.Store().Find(&chunks, badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID")); err != nil {
		return nil, fmt.Errorf("failed to get chunks by document: %w", err)
	}

	// Index order is insertion order, callers expect reading order
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Order < chunks[j].Order })

	result := make([]*models.Chunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}
	return result, nil
}

func (s *ChunkStorage) GetByDocumentPaged(ctx context.Context, documentID string, offset, limit int) ([]*models.Chunk, error) {
	all, err := s.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return []*models.Chunk{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *ChunkStorage) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	count, err := s.CountByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if err := s.db.Store().DeleteMatching(&models.Chunk{}, badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID")); err != nil {
		return 0, fmt.Errorf("failed to delete chunks by document: %w", err)
	}
	return count, nil
}

func (s *ChunkStorage) CountByDocument(ctx context.Context, documentID string) (int, error) {
	count, err := s.db.Store().Count(&models.Chunk{}, badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID"))
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}
