package models

import (
	"encoding/json"
	"time"
)

// Task execution lifecycle states.
const (
	TaskStatusPending = "pending"
	TaskStatusStarted = "started"
	TaskStatusSuccess = "success"
	TaskStatusFailure = "failure"
)

// TaskExecution records one asynchronous unit of work for idempotency and
// polling. The triple (TaskName, ArgsHash, ExternalTaskID) is unique at the
// store level: the storage key is derived from it and registration inserts
// rather than upserts.
type TaskExecution struct {
	ExecutionID    string `json:"execution_id" badgerhold:"index"` // task_{uuid}
	TaskName       string `json:"task_name"`
	ArgsHash       string `json:"args_hash"` // sha256 hex of canonical args
	ExternalTaskID string `json:"external_task_id" badgerhold:"index"`

	Status string          `json:"status"`
	Args   json.RawMessage `json:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Terminal reports whether the execution has finished, in either direction.
func (t *TaskExecution) Terminal() bool {
	return t.Status == TaskStatusSuccess || t.Status == TaskStatusFailure
}
