package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

type TopicHandler struct {
	storage  interfaces.StorageManager
	deletion interfaces.DeletionService
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewTopicHandler(storage interfaces.StorageManager, deletion interfaces.DeletionService) *TopicHandler {
	return &TopicHandler{
		storage:  storage,
		deletion: deletion,
		validate: validator.New(),
		logger:   common.GetLogger(),
	}
}

type createTopicRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateHandler creates a new topic
func (h *TopicHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req createTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return
	}

	now := time.Now()
	topic := &models.Topic{
		ID:          common.NewTopicID(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.storage.Topics().Create(r.Context(), topic); err != nil {
		WriteServiceError(w, err)
		return
	}

	h.logger.Info().Str("topic_id", topic.ID).Str("name", topic.Name).Msg("Topic created")
	WriteJSON(w, http.StatusCreated, topic)
}

// ListHandler lists all topics
func (h *TopicHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	topics, err := h.storage.Topics().List(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"topics": topics,
		"count":  len(topics),
	})
}

// GetHandler returns one topic with its document count
func (h *TopicHandler) GetHandler(w http.ResponseWriter, r *http.Request, topicID string) {
	topic, err := h.storage.Topics().Get(r.Context(), topicID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	docCount, err := h.storage.Documents().CountByTopic(r.Context(), topicID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"topic":          topic,
		"document_count": docCount,
	})
}

// DeleteHandler removes a topic and everything under it
func (h *TopicHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, topicID string) {
	if err := h.deletion.DeleteTopic(r.Context(), topicID); err != nil {
		WriteServiceError(w, err)
		return
	}

	h.logger.Info().Str("topic_id", topicID).Msg("Topic deleted")
	WriteSuccess(w, "Topic deleted")
}
