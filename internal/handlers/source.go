package handlers

import (
	"VaultSync/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SourceHandler — источники хранилища.
type SourceHandler struct {
	SourceService *service.SourceService
	Logger        *zap.SugaredLogger
}

func NewSourceHandler(sourceService *service.SourceService, logger *zap.SugaredLogger) *SourceHandler {
	return &SourceHandler{SourceService: sourceService, Logger: logger}
}

type UpdateContentRequest struct {
	Content string `json:"content"`
}

// Create добавление источника (ссылка или загруженный файл)
func (h *SourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.CreateSourceInput
	if !decodeBody(w, r, h.Logger, "CreateSource", &req) {
		return
	}
	src, ds, err := h.SourceService.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.Logger, "CreateSource", err)
		return
	}
	markDegraded(w, h.Logger, "CreateSource", ds)
	writeJSON(w, http.StatusCreated, src)
}

// List источники хранилища (?vault_id=)
func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	vaultID := r.URL.Query().Get("vault_id")
	if vaultID == "" {
		writeFail(w, http.StatusBadRequest, service.ReasonMissingField, "vault_id is required")
		return
	}
	list, err := h.SourceService.List(r.Context(), userID, vaultID)
	if err != nil {
		writeError(w, h.Logger, "ListSources", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get один источник
func (h *SourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	src, err := h.SourceService.Get(r.Context(), userID, chi.URLParam(r, "sourceID"))
	if err != nil {
		writeError(w, h.Logger, "GetSource", err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

// UpdateContent замена plain-text содержимого источника
func (h *SourceHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdateContentRequest
	if !decodeBody(w, r, h.Logger, "UpdateContent", &req) {
		return
	}
	src, ds, err := h.SourceService.UpdateContent(r.Context(), userID, chi.URLParam(r, "sourceID"), req.Content)
	if err != nil {
		writeError(w, h.Logger, "UpdateContent", err)
		return
	}
	markDegraded(w, h.Logger, "UpdateContent", ds)
	writeJSON(w, http.StatusOK, src)
}

// Highlights сегменты содержимого с подсветкой аннотаций
func (h *SourceHandler) Highlights(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.SourceService.Highlights(r.Context(), userID, chi.URLParam(r, "sourceID"))
	if err != nil {
		writeError(w, h.Logger, "Highlights", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
