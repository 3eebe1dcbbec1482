package evidence

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"github.com/ternarybob/citatum/internal/vectorstore"
)

// Service turns persisted chunks into searchable evidence. Each topic owns
// one collection whose name is derived from the topic name and the
// embedding dimension, so any caller can reconstruct it without a lookup
// table.
type Service struct {
	vectors         interfaces.VectorStore
	embedder        interfaces.EmbeddingService
	verifyThreshold float64
	logger          arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.EvidenceService = (*Service)(nil)

// NewService creates the evidence service
func NewService(vectors interfaces.VectorStore, embedder interfaces.EmbeddingService, verifyThreshold float64, logger arbor.ILogger) *Service {
	if verifyThreshold <= 0 {
		verifyThreshold = 0.5
	}
	return &Service{
		vectors:         vectors,
		embedder:        embedder,
		verifyThreshold: verifyThreshold,
		logger:          logger,
	}
}

// collectionName derives the topic's collection name.
func (s *Service) collectionName(topic *models.Topic) string {
	return vectorstore.CollectionName(topic.Name, s.embedder.Dimension())
}

// Index embeds all chunks in one provider call and bulk-inserts them. The
// returned embedding count must equal the chunk count; anything else
// aborts before the insert so the collection never holds a partial batch
// with wrong attribution.
func (s *Service) Index(ctx context.Context, topic *models.Topic, chunks []*models.Chunk, reset bool) error {
	if len(chunks) == 0 {
		return nil
	}

	name := s.collectionName(topic)

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	metadata := make([]map[string]interface{}, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.ID
		texts[i] = chunk.Text
		m := map[string]interface{}{
			"chunk_id":    chunk.ID,
			"document_id": chunk.DocumentID,
			"topic_id":    chunk.TopicID,
			"order":       chunk.Order,
		}
		if chunk.PageNumber != nil {
			m["page_number"] = *chunk.PageNumber
		}
		if chunk.Section != "" {
			m["section"] = chunk.Section
		}
		metadata[i] = m
	}

	vectors, err := s.embedder.GenerateEmbeddings(ctx, texts, interfaces.EmbeddingPurposeDocument)
	if err != nil {
		return fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d chunks, %d embeddings", models.ErrEmbeddingCountMismatch, len(chunks), len(vectors))
	}

	if err := s.vectors.CreateCollection(ctx, name, s.embedder.Dimension(), reset); err != nil {
		return fmt.Errorf("failed to prepare collection %s: %w", name, err)
	}

	if err := s.vectors.InsertMany(ctx, name, ids, texts, metadata, vectors); err != nil {
		return fmt.Errorf("failed to insert %d vectors into %s: %w", len(ids), name, err)
	}

	s.logger.Info().
		Str("topic", topic.Name).
		Str("collection", name).
		Int("chunks", len(chunks)).
		Msg("Indexed chunks")

	return nil
}

// Search embeds the query and ranks the topic's chunks against it. Missing
// collection, missing embedding and empty collection all surface as
// models.ErrNoEvidence so callers can render an empty result instead of a
// server failure.
func (s *Service) Search(ctx context.Context, topic *models.Topic, query string, limit int) ([]models.RetrievedEvidence, error) {
	name := s.collectionName(topic)

	info, err := s.vectors.CollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect collection %s: %w", name, err)
	}
	if !info.Exists || info.RowCount == 0 {
		return nil, fmt.Errorf("%w: topic %s has no indexed documents", models.ErrNoEvidence, topic.Name)
	}

	queryVectors, err := s.embedder.GenerateEmbeddings(ctx, []string{query}, interfaces.EmbeddingPurposeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVectors) == 0 || len(queryVectors[0]) == 0 {
		return nil, fmt.Errorf("%w: query produced no embedding", models.ErrNoEvidence)
	}

	matches, err := s.vectors.SearchByVector(ctx, name, queryVectors[0], limit)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: topic %s has no collection", models.ErrNoEvidence, topic.Name)
		}
		return nil, fmt.Errorf("search in %s failed: %w", name, err)
	}

	results := make([]models.RetrievedEvidence, 0, len(matches))
	for _, match := range matches {
		results = append(results, toEvidence(match))
	}
	return results, nil
}

// VerifyClaim retrieves evidence for the claim and splits it at the score
// threshold. Chunks above the threshold are near the claim in embedding
// space and listed as supporting, the rest as refuting. This is a
// similarity partition, not an entailment judgment.
func (s *Service) VerifyClaim(ctx context.Context, topic *models.Topic, claim string, limit int) (*models.ClaimVerification, error) {
	hits, err := s.Search(ctx, topic, claim, limit)
	if err != nil {
		if errors.Is(err, models.ErrNoEvidence) {
			return &models.ClaimVerification{
				Claim:      claim,
				Supporting: []models.Citation{},
				Refuting:   []models.Citation{},
			}, nil
		}
		return nil, err
	}

	verification := &models.ClaimVerification{
		Claim:      claim,
		Supporting: []models.Citation{},
		Refuting:   []models.Citation{},
	}
	for _, hit := range hits {
		citation := models.Citation{
			ChunkText:  hit.Text,
			ChunkID:    hit.ChunkID,
			DocumentID: hit.DocumentID,
			PageNumber: hit.PageNumber,
			Section:    hit.Section,
			Score:      hit.Score,
		}
		if hit.Score > s.verifyThreshold {
			verification.Supporting = append(verification.Supporting, citation)
		} else {
			verification.Refuting = append(verification.Refuting, citation)
		}
	}
	return verification, nil
}

// CollectionInfo reports the topic collection's state.
func (s *Service) CollectionInfo(ctx context.Context, topic *models.Topic) (*models.CollectionInfo, error) {
	return s.vectors.CollectionInfo(ctx, s.collectionName(topic))
}

// ResetCollection drops and recreates the topic's collection at the
// current embedding dimension.
func (s *Service) ResetCollection(ctx context.Context, topic *models.Topic) error {
	return s.vectors.CreateCollection(ctx, s.collectionName(topic), s.embedder.Dimension(), true)
}

// DeleteVectors removes chunk vectors from the topic's collection. Absent
// ids and an absent collection are not errors.
func (s *Service) DeleteVectors(ctx context.Context, topic *models.Topic, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	err := s.vectors.DeleteByIDs(ctx, s.collectionName(topic), chunkIDs)
	if err != nil && errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}

// DeleteCollection removes the topic's collection entirely.
func (s *Service) DeleteCollection(ctx context.Context, topic *models.Topic) error {
	return s.vectors.DeleteCollection(ctx, s.collectionName(topic))
}

func toEvidence(match models.VectorMatch) models.RetrievedEvidence {
	ev := models.RetrievedEvidence{
		ChunkID: match.ID,
		Text:    match.Text,
		Score:   match.Score,
	}
	if match.Metadata == nil {
		return ev
	}
	if v, ok := match.Metadata["document_id"].(string); ok {
		ev.DocumentID = v
	}
	if v, ok := match.Metadata["topic_id"].(string); ok {
		ev.TopicID = v
	}
	if v, ok := match.Metadata["section"].(string); ok {
		ev.Section = v
	}
	switch v := match.Metadata["page_number"].(type) {
	case int:
		page := v
		ev.PageNumber = &page
	case float64:
		page := int(v)
		ev.PageNumber = &page
	}
	return ev
}
