package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// ProcessDocumentExecutor runs the ingestion pipeline for a staged upload
func ProcessDocumentExecutor(ingest interfaces.IngestService) interfaces.TaskExecutor {
	return func(ctx context.Context, msg *models.QueueMessage) (any, error) {
		var payload models.ProcessDocumentPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("invalid document_process payload: %w", err)
		}
		return ingest.Process(ctx, &payload)
	}
}

// DeleteDocumentExecutor runs the cascading delete for one document
func DeleteDocumentExecutor(deletion interfaces.DeletionService) interfaces.TaskExecutor {
	return func(ctx context.Context, msg *models.QueueMessage) (any, error) {
		var payload models.DeleteDocumentPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("invalid document_delete payload: %w", err)
		}
		return deletion.DeleteDocument(ctx, payload.DocumentID)
	}
}
