package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/common"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

type DocumentHandler struct {
	storage  interfaces.StorageManager
	blobs    interfaces.BlobStore
	queue    interfaces.QueueManager
	deletion interfaces.DeletionService
	upload   common.UploadConfig
	logger   arbor.ILogger
}

func NewDocumentHandler(storage interfaces.StorageManager, blobs interfaces.BlobStore, queue interfaces.QueueManager, deletion interfaces.DeletionService, upload common.UploadConfig) *DocumentHandler {
	return &DocumentHandler{
		storage:  storage,
		blobs:    blobs,
		queue:    queue,
		deletion: deletion,
		upload:   upload,
		logger:   common.GetLogger(),
	}
}

// UploadHandler accepts a multipart upload, stages the file and enqueues
// an ingestion task. The response is always 202 with a task id the caller
// polls; validation that needs the file contents happens in the worker.
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request, topicRef string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	topic, err := ResolveTopic(r.Context(), h.storage.Topics(), topicRef)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(h.upload.MaxFileSize); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	if header.Size > h.upload.MaxFileSize {
		WriteError(w, http.StatusBadRequest, models.ErrFileTooLarge(header.Size, h.upload.MaxFileSize).Error())
		return
	}

	contentType := h.resolveContentType(header.Filename, header.Header.Get("Content-Type"))
	if !h.allowedType(contentType) {
		WriteError(w, http.StatusBadRequest, models.ErrUnsupportedType(contentType).Error())
		return
	}

	// Stage under a task-scoped name so concurrent uploads of the same
	// filename cannot collide
	taskID := common.NewTaskID()
	stagedName := taskID + "_" + common.CleanFilename(header.Filename)
	stagedPath := h.blobs.StagePath(stagedName)

	staged, err := os.Create(stagedPath)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to stage upload: %v", err))
		return
	}
	written, err := io.Copy(staged, file)
	staged.Close()
	if err != nil {
		os.Remove(stagedPath)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to stage upload: %v", err))
		return
	}

	payload := models.ProcessDocumentPayload{
		TopicID:         topic.ID,
		FileName:        header.Filename,
		ContentType:     contentType,
		Size:            written,
		Title:           r.FormValue("title"),
		Author:          r.FormValue("author"),
		DOI:             r.FormValue("doi"),
		Journal:         r.FormValue("journal"),
		PublicationDate: r.FormValue("publication_date"),
		StagedPath:      stagedPath,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		os.Remove(stagedPath)
		WriteError(w, http.StatusInternalServerError, "Failed to encode task payload")
		return
	}

	msg := &models.QueueMessage{
		TaskID:  taskID,
		Type:    models.TaskTypeDocumentProcess,
		Payload: data,
	}
	if err := h.queue.Enqueue(r.Context(), msg); err != nil {
		os.Remove(stagedPath)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to enqueue task: %v", err))
		return
	}

	h.logger.Info().
		Str("task_id", taskID).
		Str("topic_id", topic.ID).
		Str("file", header.Filename).
		Int64("size", written).
		Msg("Upload accepted")

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"status":  "accepted",
	})
}

// GetHandler returns document metadata with its chunk count
func (h *DocumentHandler) GetHandler(w http.ResponseWriter, r *http.Request, documentID string) {
	doc, err := h.storage.Documents().Get(r.Context(), documentID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	chunkCount, err := h.storage.Chunks().CountByDocument(r.Context(), documentID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"document":    doc,
		"chunk_count": chunkCount,
	})
}

// ChunksHandler returns a page of a document's chunks in order
func (h *DocumentHandler) ChunksHandler(w http.ResponseWriter, r *http.Request, documentID string) {
	if _, err := h.storage.Documents().Get(r.Context(), documentID); err != nil {
		WriteServiceError(w, err)
		return
	}

	page, pageSize := GetPaginationParams(r)
	chunks, err := h.storage.Chunks().GetByDocumentPaged(r.Context(), documentID, page*pageSize, pageSize)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	total, err := h.storage.Chunks().CountByDocument(r.Context(), documentID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"chunks": chunks,
		"pagination": PaginationResponse{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	})
}

// DeleteHandler cascades a document delete. The synchronous form returns
// the deletion counts; ?async=1 enqueues the work and returns 202.
func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, documentID string) {
	if r.URL.Query().Get("async") == "1" {
		h.deleteAsync(w, r, documentID)
		return
	}

	result, err := h.deletion.DeleteDocument(r.Context(), documentID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	h.logger.Info().Str("document_id", documentID).Msg("Document deleted")
	WriteJSON(w, http.StatusOK, result)
}

func (h *DocumentHandler) deleteAsync(w http.ResponseWriter, r *http.Request, documentID string) {
	if _, err := h.storage.Documents().Get(r.Context(), documentID); err != nil {
		WriteServiceError(w, err)
		return
	}

	taskID := common.NewTaskID()
	data, err := json.Marshal(models.DeleteDocumentPayload{DocumentID: documentID})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to encode task payload")
		return
	}

	msg := &models.QueueMessage{
		TaskID:  taskID,
		Type:    models.TaskTypeDocumentDelete,
		Payload: data,
	}
	if err := h.queue.Enqueue(r.Context(), msg); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to enqueue task: %v", err))
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"status":  "accepted",
	})
}

// resolveContentType prefers the declared type, falling back to the file
// extension when the client sent a generic one
func (h *DocumentHandler) resolveContentType(filename, declared string) string {
	declared = strings.TrimSpace(strings.ToLower(strings.Split(declared, ";")[0]))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return strings.Split(byExt, ";")[0]
	}
	return declared
}

func (h *DocumentHandler) allowedType(contentType string) bool {
	for _, allowed := range h.upload.AllowedTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}
