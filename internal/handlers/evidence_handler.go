package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

type EvidenceHandler struct {
	evidence     interfaces.EvidenceService
	storage      interfaces.StorageManager
	defaultLimit int
	validate     *validator.Validate
	logger       arbor.ILogger
}

func NewEvidenceHandler(evidence interfaces.EvidenceService, storage interfaces.StorageManager, defaultLimit int) *EvidenceHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &EvidenceHandler{
		evidence:     evidence,
		storage:      storage,
		defaultLimit: defaultLimit,
		validate:     validator.New(),
		logger:       common.GetLogger(),
	}
}

// resolveTopic accepts either a topic id or a topic name in the path
func (h *EvidenceHandler) resolveTopic(r *http.Request, ref string) (*models.Topic, error) {
	return ResolveTopic(r.Context(), h.storage.Topics(), ref)
}

type searchRequest struct {
	Text  string `json:"text" validate:"required,min=1"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type verifyRequest struct {
	Claim string `json:"claim" validate:"required,min=1"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// SearchHandler runs a semantic search over a topic's evidence. An empty
// or missing collection is an empty result, not an error.
func (h *EvidenceHandler) SearchHandler(w http.ResponseWriter, r *http.Request, topicID string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return
	}
	if req.Limit == 0 {
		req.Limit = h.defaultLimit
	}

	topic, err := h.resolveTopic(r, topicID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	results, err := h.evidence.Search(r.Context(), topic, req.Text, req.Limit)
	if err != nil {
		if errors.Is(err, models.ErrNoEvidence) {
			WriteJSON(w, http.StatusOK, map[string]interface{}{
				"results": []*models.RetrievedEvidence{},
				"count":   0,
			})
			return
		}
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// VerifyHandler checks a claim against a topic's evidence
func (h *EvidenceHandler) VerifyHandler(w http.ResponseWriter, r *http.Request, topicID string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return
	}
	if req.Limit == 0 {
		req.Limit = h.defaultLimit
	}

	topic, err := h.resolveTopic(r, topicID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	verification, err := h.evidence.VerifyClaim(r.Context(), topic, req.Claim, req.Limit)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, verification)
}

// CollectionHandler returns the vector collection info for a topic
func (h *EvidenceHandler) CollectionHandler(w http.ResponseWriter, r *http.Request, topicID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	topic, err := h.resolveTopic(r, topicID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	info, err := h.evidence.CollectionInfo(r.Context(), topic)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, info)
}

// ResetCollectionHandler drops and recreates a topic's vector collection
func (h *EvidenceHandler) ResetCollectionHandler(w http.ResponseWriter, r *http.Request, topicID string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	topic, err := h.resolveTopic(r, topicID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	if err := h.evidence.ResetCollection(r.Context(), topic); err != nil {
		WriteServiceError(w, err)
		return
	}

	h.logger.Info().Str("topic_id", topic.ID).Msg("Collection reset")
	WriteSuccess(w, "Collection reset")
}
