package handlers

import (
	"VaultSync/internal/service"
	"net/http"

	"go.uber.org/zap"
)

// AnnotationHandler — аннотации к источникам.
type AnnotationHandler struct {
	AnnotationService *service.AnnotationService
	Logger            *zap.SugaredLogger
}

func NewAnnotationHandler(annotationService *service.AnnotationService, logger *zap.SugaredLogger) *AnnotationHandler {
	return &AnnotationHandler{AnnotationService: annotationService, Logger: logger}
}

// Create новая аннотация: готовая позиция или выделение
func (h *AnnotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateAnnotationInput
	if !decodeBody(w, r, h.Logger, "CreateAnnotation", &req) {
		return
	}
	a, ds, err := h.AnnotationService.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.Logger, "CreateAnnotation", err)
		return
	}
	markDegraded(w, h.Logger, "CreateAnnotation", ds)
	writeJSON(w, http.StatusCreated, a)
}

// List аннотации источника (?source_id=)
func (h *AnnotationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		writeFail(w, http.StatusBadRequest, service.ReasonMissingField, "source_id is required")
		return
	}
	list, err := h.AnnotationService.List(r.Context(), userID, sourceID)
	if err != nil {
		writeError(w, h.Logger, "ListAnnotations", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
