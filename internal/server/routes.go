package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Topics
	mux.HandleFunc("/api/topics", s.handleTopicsRoute)  // GET (list), POST (create)
	mux.HandleFunc("/api/topics/", s.handleTopicRoutes) // GET/DELETE /{id}

	// API routes - Documents
	mux.HandleFunc("/api/documents/upload/", s.handleUploadRoute) // POST /{topic}
	mux.HandleFunc("/api/documents/", s.handleDocumentRoutes)     // GET/DELETE /{id}, GET /{id}/chunks

	// API routes - Evidence
	mux.HandleFunc("/api/evidence/", s.handleEvidenceRoutes)

	// API routes - Tasks
	mux.HandleFunc("/api/tasks/", s.handleTaskRoutes) // GET /{id}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

func (s *Server) handleTopicsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.app.TopicHandler.ListHandler(w, r)
	case "POST":
		s.app.TopicHandler.CreateHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTopicRoutes(w http.ResponseWriter, r *http.Request) {
	topicID := strings.TrimPrefix(r.URL.Path, "/api/topics/")
	if topicID == "" || strings.Contains(topicID, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch r.Method {
	case "GET":
		s.app.TopicHandler.GetHandler(w, r, topicID)
	case "DELETE":
		s.app.TopicHandler.DeleteHandler(w, r, topicID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUploadRoute(w http.ResponseWriter, r *http.Request) {
	topicID := strings.TrimPrefix(r.URL.Path, "/api/documents/upload/")
	if topicID == "" || strings.Contains(topicID, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	s.app.DocumentHandler.UploadHandler(w, r, topicID)
}

func (s *Server) handleDocumentRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/documents/")

	// GET /api/documents/{id}/chunks
	if documentID, ok := strings.CutSuffix(path, "/chunks"); ok {
		if r.Method != "GET" || documentID == "" || strings.Contains(documentID, "/") {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.DocumentHandler.ChunksHandler(w, r, documentID)
		return
	}

	if path == "" || strings.Contains(path, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch r.Method {
	case "GET":
		s.app.DocumentHandler.GetHandler(w, r, path)
	case "DELETE":
		s.app.DocumentHandler.DeleteHandler(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEvidenceRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/evidence/")

	topic, action, found := strings.Cut(path, "/")
	if !found || topic == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch action {
	case "search":
		s.app.EvidenceHandler.SearchHandler(w, r, topic)
	case "verify":
		s.app.EvidenceHandler.VerifyHandler(w, r, topic)
	case "collection":
		s.app.EvidenceHandler.CollectionHandler(w, r, topic)
	case "collection/reset":
		s.app.EvidenceHandler.ResetCollectionHandler(w, r, topic)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}

func (s *Server) handleTaskRoutes(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if taskID == "" || strings.Contains(taskID, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	s.app.TaskHandler.GetHandler(w, r, taskID)
}
