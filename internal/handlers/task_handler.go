package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

type TaskHandler struct {
	tasks  interfaces.TaskService
	logger arbor.ILogger
}

func NewTaskHandler(tasks interfaces.TaskService) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		logger: common.GetLogger(),
	}
}

// GetHandler returns the execution state for a task id handed out at
// upload time. Work that no worker has claimed yet has no execution row
// and reports as queued.
func (h *TaskHandler) GetHandler(w http.ResponseWriter, r *http.Request, taskID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	exec, err := h.tasks.GetByExternalID(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteJSON(w, http.StatusOK, map[string]string{
				"task_id": taskID,
				"status":  "queued",
			})
			return
		}
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, exec)
}
