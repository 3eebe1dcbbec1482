package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// Service provides idempotent task registration. Arguments are
// canonicalized before fingerprinting so two semantically equal payloads
// hash identically regardless of map iteration or field order; the backing
// store enforces uniqueness of (name, hash, external id), not this process.
type Service struct {
	store  interfaces.TaskStorage
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.TaskService = (*Service)(nil)

// NewService creates the task idempotency manager
func NewService(store interfaces.TaskStorage, logger arbor.ILogger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Register records a pending execution. A second registration with the
// same task name, canonical arguments and external id fails with
// models.ErrDuplicateTask.
func (s *Service) Register(ctx context.Context, taskName string, args any, externalTaskID string) (*models.TaskExecution, error) {
	canonical, err := CanonicalArgs(args)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize args for %s: %w", taskName, err)
	}

	exec := &models.TaskExecution{
		ExecutionID:    common.NewTaskID(),
		TaskName:       taskName,
		ArgsHash:       hashArgs(canonical),
		ExternalTaskID: externalTaskID,
		Status:         models.TaskStatusPending,
		Args:           canonical,
	}

	if err := s.store.Insert(ctx, exec); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("task", taskName).
		Str("execution_id", exec.ExecutionID).
		Str("external_id", externalTaskID).
		Msg("Task registered")

	return exec, nil
}

// MarkStarted transitions an execution to started.
func (s *Service) MarkStarted(ctx context.Context, executionID string) error {
	exec, err := s.store.Get(ctx, executionID)
	if err != nil {
		return err
	}
	now := time.Now()
	exec.Status = models.TaskStatusStarted
	exec.StartedAt = &now
	return s.store.Update(ctx, exec)
}

// MarkCompleted records the terminal status, result payload and error text.
func (s *Service) MarkCompleted(ctx context.Context, executionID, status string, result any, taskErr string) error {
	if status != models.TaskStatusSuccess && status != models.TaskStatusFailure {
		return fmt.Errorf("%w: %q is not a terminal status", models.ErrValidation, status)
	}

	exec, err := s.store.Get(ctx, executionID)
	if err != nil {
		return err
	}

	now := time.Now()
	exec.Status = status
	exec.CompletedAt = &now
	exec.Error = taskErr
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal task result: %w", err)
		}
		exec.Result = data
	}

	return s.store.Update(ctx, exec)
}

// Get returns one execution by id.
func (s *Service) Get(ctx context.Context, executionID string) (*models.TaskExecution, error) {
	return s.store.Get(ctx, executionID)
}

// GetByExternalID returns the execution registered under an external task
// id. This is the polling path for asynchronous uploads.
func (s *Service) GetByExternalID(ctx context.Context, externalTaskID string) (*models.TaskExecution, error) {
	return s.store.GetByExternalID(ctx, externalTaskID)
}

// CleanupOldTasks removes executions older than the retention window and
// returns how many went.
func (s *Service) CleanupOldTasks(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("%w: retention days must be positive", models.ErrValidation)
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		s.logger.Info().Int("deleted", deleted).Str("cutoff", cutoff.Format(time.RFC3339)).Msg("Cleaned up old task executions")
	}
	return deleted, nil
}

// CanonicalArgs serializes args as JSON with sorted object keys at every
// level, so the fingerprint is stable across producers.
func CanonicalArgs(args any) (json.RawMessage, error) {
	if args == nil {
		return json.RawMessage("null"), nil
	}

	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return marshalCanonical(decoded)
}

func marshalCanonical(v any) (json.RawMessage, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			keyData, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			valData, err := marshalCanonical(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, keyData...)
			out = append(out, ':')
			out = append(out, valData...)
		}
		return append(out, '}'), nil
	case []any:
		out := []byte{'['}
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			itemData, err := marshalCanonical(item)
			if err != nil {
				return nil, err
			}
			out = append(out, itemData...)
		}
		return append(out, ']'), nil
	default:
		return json.Marshal(val)
	}
}

func hashArgs(canonical json.RawMessage) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
