package interfaces

import (
	"context"

	"github.com/ternarybob/citatum/internal/models"
)

// EvidenceService indexes chunks and answers semantic queries per topic.
type EvidenceService interface {
	// Index embeds chunks in one batch and bulk-inserts them into the
	// topic's collection, creating it at the embedding dimension if needed.
	Index(ctx context.Context, topic *models.Topic, chunks []*models.Chunk, reset bool) error

	// Search embeds the query and returns ranked evidence. A topic with no
	// collection or no rows fails with models.ErrNoEvidence.
	Search(ctx context.Context, topic *models.Topic, query string, limit int) ([]models.RetrievedEvidence, error)

	// VerifyClaim searches for the claim and partitions hits by score.
	VerifyClaim(ctx context.Context, topic *models.Topic, claim string, limit int) (*models.ClaimVerification, error)

	// CollectionInfo reports the topic's collection state.
	CollectionInfo(ctx context.Context, topic *models.Topic) (*models.CollectionInfo, error)

	// ResetCollection drops and recreates the topic's collection.
	ResetCollection(ctx context.Context, topic *models.Topic) error

	// DeleteVectors removes chunk vectors from the topic's collection.
	DeleteVectors(ctx context.Context, topic *models.Topic, chunkIDs []string) error

	// DeleteCollection removes the topic's collection entirely.
	DeleteCollection(ctx context.Context, topic *models.Topic) error
}

// IngestService runs the document ingestion pipeline.
type IngestService interface {
	Process(ctx context.Context, payload *models.ProcessDocumentPayload) (*models.IngestResult, error)
}

// DeletionService removes documents and their derived data in a fixed
// cascade order.
type DeletionService interface {
	DeleteDocument(ctx context.Context, documentID string) (*models.DeletionResult, error)
	DeleteTopic(ctx context.Context, topicID string) error
}

// TaskService provides idempotent task registration and lifecycle updates.
type TaskService interface {
	Register(ctx context.Context, taskName string, args any, externalTaskID string) (*models.TaskExecution, error)
	MarkStarted(ctx context.Context, executionID string) error
	MarkCompleted(ctx context.Context, executionID, status string, result any, taskErr string) error
	Get(ctx context.Context, executionID string) (*models.TaskExecution, error)
	GetByExternalID(ctx context.Context, externalTaskID string) (*models.TaskExecution, error)
	CleanupOldTasks(ctx context.Context, retentionDays int) (int, error)
}
