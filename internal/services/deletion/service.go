package deletion

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// Service removes documents in a fixed cascade order: vectors first, then
// chunk rows, then the blob, then the document row. Only the last step can
// fail the operation; earlier failures are logged and reflected in the
// counts, so the row that makes the document visible is always the last
// thing to go and a crashed delete can be re-run.
type Service struct {
	storage  interfaces.StorageManager
	blobs    interfaces.BlobStore
	evidence interfaces.EvidenceService
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.DeletionService = (*Service)(nil)

// NewService creates the deletion coordinator
func NewService(storage interfaces.StorageManager, blobs interfaces.BlobStore, evidence interfaces.EvidenceService, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		blobs:    blobs,
		evidence: evidence,
		logger:   logger,
	}
}

// DeleteDocument cascades one document away. Absent document fails fast
// with models.ErrNotFound before anything is touched.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) (*models.DeletionResult, error) {
	doc, err := s.storage.Documents().Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	topic, err := s.storage.Topics().Get(ctx, doc.TopicID)
	if err != nil {
		return nil, err
	}

	result := &models.DeletionResult{}

	// Step 1: vectors. Failure here leaves orphan vectors that can never
	// be served (their chunk rows disappear next), so it is logged and
	// reported as zero, never raised.
	chunks, err := s.storage.Chunks().GetByDocument(ctx, documentID)
	if err != nil {
		s.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to collect chunk ids for vector deletion")
	} else if len(chunks) > 0 {
		chunkIDs := make([]string, len(chunks))
		for i, chunk := range chunks {
			chunkIDs[i] = chunk.ID
		}
		if err := s.evidence.DeleteVectors(ctx, topic, chunkIDs); err != nil {
			s.logger.Warn().Err(err).Str("document_id", documentID).Int("vectors", len(chunkIDs)).Msg("Failed to delete vectors")
		} else {
			result.DeletedEmbeddings = len(chunkIDs)
		}
	}

	// Step 2: chunk rows
	deleted, err := s.storage.Chunks().DeleteByDocument(ctx, documentID)
	if err != nil {
		s.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to delete chunk rows")
	} else {
		result.DeletedChunks = deleted
	}

	// Step 3: blob. The public name maps back to the stored path; a
	// missing file means the blob is already gone, which is the desired
	// end state.
	if key, clean, ok := common.SplitPublicFileName(doc.Name); ok {
		topicDir := common.SanitizeTopicName(topic.Name)
		path := s.blobs.DocumentPath(topicDir, common.StoredFileName(key, clean))
		if s.blobs.Exists(path) {
			if err := s.blobs.Delete(path); err != nil {
				s.logger.Warn().Err(err).Str("path", path).Msg("Failed to delete blob")
			} else {
				result.FileDeleted = true
			}
		} else {
			s.logger.Debug().Str("path", path).Msg("Blob already absent")
		}
	} else {
		s.logger.Warn().Str("document_id", documentID).Str("name", doc.Name).Msg("Document name is not in public form, skipping blob deletion")
	}

	// Step 4: the document row. This is the only step allowed to raise;
	// while the row exists the document is still listed and the delete
	// can be retried.
	if err := s.storage.Documents().Delete(ctx, documentID); err != nil {
		return nil, fmt.Errorf("failed to delete document row %s: %w", documentID, err)
	}

	s.logger.Info().
		Str("document_id", documentID).
		Int("chunks", result.DeletedChunks).
		Int("embeddings", result.DeletedEmbeddings).
		Bool("file_deleted", result.FileDeleted).
		Msg("Document deleted")

	return result, nil
}

// DeleteTopic deletes every document in the topic through the same
// cascade, then the topic's collection, then the topic row.
func (s *Service) DeleteTopic(ctx context.Context, topicID string) error {
	topic, err := s.storage.Topics().Get(ctx, topicID)
	if err != nil {
		return err
	}

	docs, err := s.storage.Documents().GetByTopic(ctx, topicID)
	if err != nil {
		return fmt.Errorf("failed to list documents for topic %s: %w", topicID, err)
	}

	for _, doc := range docs {
		if _, err := s.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", doc.ID, err)
		}
	}

	if err := s.evidence.DeleteCollection(ctx, topic); err != nil {
		s.logger.Warn().Err(err).Str("topic_id", topicID).Msg("Failed to delete topic collection")
	}

	if err := s.storage.Topics().Delete(ctx, topicID); err != nil {
		return fmt.Errorf("failed to delete topic row %s: %w", topicID, err)
	}

	s.logger.Info().Str("topic_id", topicID).Int("documents", len(docs)).Msg("Topic deleted")
	return nil
}
