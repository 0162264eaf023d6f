package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"inkpad/internal/document/model"
	"inkpad/internal/document/service"
	"inkpad/middleware"
	"inkpad/pkg/apperr"
	"inkpad/pkg/logger"
)

type DocumentHandler struct {
	Service *service.DocumentService
}

func NewDocumentHandler(service *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Service: service}
}

// writeError maps the core's error kinds to HTTP statuses. Anything outside
// the taxonomy is a storage or programming failure: logged in full here,
// surfaced as an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrForbidden):
		http.Error(w, "you don't have permission to do that", http.StatusForbidden)
	case errors.Is(err, apperr.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperr.ErrInvalidRole), errors.Is(err, apperr.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Sugar.Errorf("Internal error: %v", err)
		http.Error(w, "something went wrong", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.CreateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.Service.Create(userID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, doc)
}

func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.SaveDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Save(userID, req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateTitle(userID, docID, req.Title); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *DocumentHandler) GetSingleDocument(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	view, err := h.Service.GetSingle(userID, docID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, view)
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	views, err := h.Service.ListAll(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, views)
}

func (h *DocumentHandler) GetMyDocuments(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	docs, err := h.Service.ListMine(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, docs)
}

func (h *DocumentHandler) GetSharedDocuments(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	docs, err := h.Service.ListShared(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, docs)
}

func (h *DocumentHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.AddCollaborator(userID, req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"message": "Collaborator added"})
}

func (h *DocumentHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	var req model.RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.RemoveCollaborator(userID, req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *DocumentHandler) GetCollaborators(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}
	userID := r.Context().Value(middleware.UserIDKey).(string)

	roster, err := h.Service.ListCollaborators(userID, docID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, roster)
}
