package badger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// TaskStorage implements the TaskStorage interface for Badger. The storage
// key is derived from (TaskName, ArgsHash, ExternalTaskID) so uniqueness of
// that triple is enforced by the store itself: a concurrent duplicate loses
// the Insert race inside badger, with no in-process locking.
type TaskStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTaskStorage creates a new TaskStorage instance
func NewTaskStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TaskStorage {
	return &TaskStorage{
		db:     db,
		logger: logger,
	}
}

// executionKey derives the storage key from the uniqueness triple.
func executionKey(taskName, argsHash, externalTaskID string) string {
	h := sha256.New()
	h.Write([]byte(taskName))
	h.Write([]byte{0})
	h.Write([]byte(argsHash))
	h.Write([]byte{0})
	h.Write([]byte(externalTaskID))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *TaskStorage) Insert(ctx context.Context, exec *models.TaskExecution) error {
	if exec.ExecutionID == "" {
		return fmt.Errorf("%w: execution ID is required", models.ErrValidation)
	}
	if exec.TaskName == "" {
		return fmt.Errorf("%w: task name is required", models.ErrValidation)
	}

	now := time.Now()
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = now
	}
	exec.UpdatedAt = now

	key := executionKey(exec.TaskName, exec.ArgsHash, exec.ExternalTaskID)
	if err := s.db.Store().Insert(key, exec); err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("%w: %s", models.ErrDuplicateTask, exec.TaskName)
		}
		return fmt.Errorf("failed to insert task execution: %w", err)
	}
	return nil
}

func (s *TaskStorage) Get(ctx context.Context, executionID string) (*models.TaskExecution, error) {
	var execs []models.TaskExecution
	err := s.db.Store().Find(&execs, badgerhold.Where("ExecutionID").Eq(executionID).Index("ExecutionID"))
	if err != nil {
		return nil, fmt.Errorf("failed to find task execution: %w", err)
	}
	if len(execs) == 0 {
		return nil, fmt.Errorf("%w: task execution %s", models.ErrNotFound, executionID)
	}
	return &execs[0], nil
}

func (s *TaskStorage) GetByExternalID(ctx context.Context, externalTaskID string) (*models.TaskExecution, error) {
	var execs []models.TaskExecution
	err := s.db.Store().Find(&execs, badgerhold.Where("ExternalTaskID").Eq(externalTaskID).Index("ExternalTaskID"))
	if err != nil {
		return nil, fmt.Errorf("failed to find task execution: %w", err)
	}
	if len(execs) == 0 {
		return nil, fmt.Errorf("%w: task with external id %s", models.ErrNotFound, externalTaskID)
	}
	return &execs[0], nil
}

func (s *TaskStorage) Update(ctx context.Context, exec *models.TaskExecution) error {
	exec.UpdatedAt = time.Now()
	key := executionKey(exec.TaskName, exec.ArgsHash, exec.ExternalTaskID)
	if err := s.db.Store().Update(key, exec); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("%w: task execution %s", models.ErrNotFound, exec.ExecutionID)
		}
		return fmt.Errorf("failed to update task execution: %w", err)
	}
	return nil
}

func (s *TaskStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	var execs []models.TaskExecution
	query := badgerhold.Where("CreatedAt").Lt(cutoff)
	if err := s.db.Store().Find(&execs, query); err != nil {
		return 0, fmt.Errorf("failed to find old task executions: %w", err)
	}

	deleted := 0
	for i := range execs {
		key := executionKey(execs[i].TaskName, execs[i].ArgsHash, execs[i].ExternalTaskID)
		if err := s.db.Store().Delete(key, &models.TaskExecution{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to delete task execution: %w", err)
		}
		deleted++
	}
	return deleted, nil
}
