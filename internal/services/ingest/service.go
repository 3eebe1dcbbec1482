package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"github.com/ternarybob/citatum/internal/services/chunker"
	"github.com/ternarybob/citatum/internal/services/loader"
)

// Service runs the ingestion pipeline: validate, persist the blob, persist
// metadata, chunk, index. Failures before chunk rows exist compensate and
// abort; indexing failure is recorded on the result and the document stays.
type Service struct {
	storage  interfaces.StorageManager
	blobs    interfaces.BlobStore
	loaders  *loader.Registry
	evidence interfaces.EvidenceService
	upload   common.UploadConfig
	chunking common.ChunkingConfig
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.IngestService = (*Service)(nil)

// NewService creates the ingest service
func NewService(storage interfaces.StorageManager, blobs interfaces.BlobStore, loaders *loader.Registry, evidence interfaces.EvidenceService, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		storage:  storage,
		blobs:    blobs,
		loaders:  loaders,
		evidence: evidence,
		upload:   config.Upload,
		chunking: config.Chunking,
		logger:   logger,
	}
}

// Process ingests one staged upload end-to-end.
func (s *Service) Process(ctx context.Context, payload *models.ProcessDocumentPayload) (*models.IngestResult, error) {
	start := time.Now()
	state := StateValidating

	topic, err := s.storage.Topics().Get(ctx, payload.TopicID)
	if err != nil {
		return nil, err
	}

	// Validating
	stepStart := time.Now()
	docType, data, err := s.validate(payload)
	if err != nil {
		return nil, s.fail(state, err)
	}
	s.logStep(state, payload.FileName, stepStart)

	// BlobPersisting
	state = StateBlobPersisting
	stepStart = time.Now()
	topicDir := common.SanitizeTopicName(topic.Name)
	cleanName := common.CleanFilename(payload.FileName)
	key, blobPath, err := s.blobs.GenerateUniquePath(topicDir, cleanName)
	if err != nil {
		return nil, s.fail(state, err)
	}
	if err := s.blobs.Write(blobPath, data); err != nil {
		return nil, s.fail(state, err)
	}
	if payload.StagedPath != "" {
		if err := s.blobs.Delete(payload.StagedPath); err != nil {
			s.logger.Warn().Err(err).Str("path", payload.StagedPath).Msg("Failed to remove staged upload")
		}
	}
	s.logStep(state, payload.FileName, stepStart)

	// MetadataPersisting
	state = StateMetadataPersisting
	stepStart = time.Now()
	doc := &models.Document{
		ID:              common.NewDocumentID(),
		Name:            common.PublicFileName(key, cleanName),
		Type:            docType,
		Size:            int64(len(data)),
		Title:           payload.Title,
		Author:          payload.Author,
		DOI:             payload.DOI,
		Journal:         payload.Journal,
		PublicationDate: payload.PublicationDate,
		Metadata:        documentMetadata(payload),
		TopicID:         topic.ID,
	}
	if err := s.storage.Documents().Create(ctx, doc); err != nil {
		// The blob exists but its row does not; remove the blob so the
		// failed ingest leaves no orphan file behind
		if delErr := s.blobs.Delete(blobPath); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", blobPath).Msg("Failed to remove blob after metadata failure")
		}
		return nil, s.fail(state, err)
	}
	s.logStep(state, doc.ID, stepStart)

	// Chunking
	state = StateChunking
	stepStart = time.Now()
	chunks, err := s.chunk(ctx, doc, blobPath)
	if err != nil {
		return nil, s.fail(state, err)
	}
	s.logStep(state, doc.ID, stepStart)

	result := &models.IngestResult{
		DocumentID:  doc.ID,
		FileID:      doc.Name,
		ChunksCount: len(chunks),
	}

	// A document with no extractable text is a valid terminal state
	if len(chunks) == 0 {
		result.DurationMS = time.Since(start).Milliseconds()
		s.logger.Info().Str("document_id", doc.ID).Msg("Document produced no chunks, skipping indexing")
		return result, nil
	}

	// Indexing
	state = StateIndexing
	stepStart = time.Now()
	if err := s.evidence.Index(ctx, topic, chunks, false); err != nil {
		if state.Fatal() {
			return nil, s.fail(state, err)
		}
		// Past the chunk boundary the rows stay; the miss is recorded
		// for the caller
		result.IndexError = err.Error()
		s.logger.Warn().Err(err).Str("document_id", doc.ID).Str("state", state.String()).Msg("Indexing failed, chunk rows retained")
	} else {
		result.ChunksIndexed = len(chunks)
	}
	s.logStep(state, doc.ID, stepStart)

	result.DurationMS = time.Since(start).Milliseconds()
	s.logger.Info().
		Str("document_id", doc.ID).
		Int("chunks", result.ChunksCount).
		Int("indexed", result.ChunksIndexed).
		Int64("duration_ms", result.DurationMS).
		Msg("Document ingested")

	return result, nil
}

// documentMetadata carries the upload provenance on the document row: the
// original filename and declared type always, the bibliographic form
// fields when supplied.
func documentMetadata(payload *models.ProcessDocumentPayload) map[string]interface{} {
	meta := map[string]interface{}{
		"file_name":    payload.FileName,
		"content_type": payload.ContentType,
	}
	for key, value := range map[string]string{
		"title":            payload.Title,
		"author":           payload.Author,
		"doi":              payload.DOI,
		"journal":          payload.Journal,
		"publication_date": payload.PublicationDate,
	} {
		if value != "" {
			meta[key] = value
		}
	}
	return meta
}

// validate checks the declared size and type, then re-checks the actual
// byte length after reading the staged file.
func (s *Service) validate(payload *models.ProcessDocumentPayload) (string, []byte, error) {
	if payload.Size > s.upload.MaxFileSize {
		return "", nil, models.ErrFileTooLarge(payload.Size, s.upload.MaxFileSize)
	}

	docType := ""
	for _, allowed := range s.upload.AllowedTypes {
		if payload.ContentType == allowed {
			switch allowed {
			case "application/pdf":
				docType = models.DocumentTypePDF
			case "text/plain":
				docType = models.DocumentTypeTXT
			}
		}
	}
	if docType == "" {
		return "", nil, models.ErrUnsupportedType(payload.ContentType)
	}

	data, err := s.blobs.Read(payload.StagedPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read staged upload: %w", err)
	}
	if int64(len(data)) > s.upload.MaxFileSize {
		return "", nil, models.ErrFileTooLarge(int64(len(data)), s.upload.MaxFileSize)
	}

	return docType, data, nil
}

// chunk extracts text, splits it and bulk-inserts the rows with contiguous
// order starting at 1.
func (s *Service) chunk(ctx context.Context, doc *models.Document, blobPath string) ([]*models.Chunk, error) {
	docLoader, err := s.loaders.ForType(doc.Type)
	if err != nil {
		return nil, err
	}

	segments, err := docLoader.Load(ctx, blobPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", doc.ID, err)
	}

	pieces := chunker.Split(segments, s.chunking.MaxChars, s.chunking.SplitTag)
	if len(pieces) == 0 {
		return nil, nil
	}

	chunks := make([]*models.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &models.Chunk{
			ID:         common.NewChunkID(),
			Text:       piece.Text,
			Order:      i + 1,
			PageNumber: piece.PageNumber,
			Section:    piece.Section,
			Metadata: map[string]interface{}{
				"document_id": doc.ID,
				"topic_id":    doc.TopicID,
			},
			DocumentID: doc.ID,
			TopicID:    doc.TopicID,
		}
	}

	if err := s.storage.Chunks().CreateMany(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to persist %d chunks: %w", len(chunks), err)
	}

	return chunks, nil
}

func (s *Service) fail(state State, err error) error {
	return fmt.Errorf("%s: %w", state, err)
}

func (s *Service) logStep(state State, subject string, start time.Time) {
	s.logger.Debug().
		Str("state", state.String()).
		Str("subject", subject).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Ingest step complete")
}
