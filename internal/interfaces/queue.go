package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/citatum/internal/models"
)

// TaskExecutor processes one unit of work end-to-end. The context carries
// the soft deadline; executors should abandon work when it expires.
type TaskExecutor func(ctx context.Context, msg *models.QueueMessage) (result any, err error)

// QueueManager manages the persistent message queue
type QueueManager interface {
	Enqueue(ctx context.Context, msg *models.QueueMessage) error
	// Receive pulls the next visible message. The returned function acks
	// the message permanently; without it the message is redelivered after
	// the visibility timeout.
	Receive(ctx context.Context) (*models.QueueMessage, func() error, error)
	Extend(ctx context.Context, messageID string, duration time.Duration) error
	Close() error
}

// WorkerPool manages concurrent task processing
type WorkerPool interface {
	RegisterExecutor(taskType string, executor TaskExecutor)
	Start()
	// Stop cancels the workers and blocks until in-flight tasks finish.
	Stop()
}
