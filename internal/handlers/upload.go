package handlers

import (
	"VaultSync/internal/service"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// UploadHandler — загрузка файлов в объектное хранилище.
type UploadHandler struct {
	UploadService *service.UploadService
	Logger        *zap.SugaredLogger
}

func NewUploadHandler(uploadService *service.UploadService, logger *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{UploadService: uploadService, Logger: logger}
}

type PresignRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}

type ViewURLRequest struct {
	FileURL string `json:"file_url"`
}

type ViewURLResponse struct {
	URL string `json:"url"`
}

// PresignedURL PUT-ссылка для загрузки файла напрямую в хранилище
func (h *UploadHandler) PresignedURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req PresignRequest
	if !decodeBody(w, r, h.Logger, "PresignedURL", &req) {
		return
	}
	ticket, err := h.UploadService.PresignUpload(r.Context(), userID, req.FileName, req.FileType)
	if err != nil {
		writeError(w, h.Logger, "PresignedURL", err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// ViewURL GET-ссылка на сохранённый файл
func (h *UploadHandler) ViewURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req ViewURLRequest
	if !decodeBody(w, r, h.Logger, "ViewURL", &req) {
		return
	}
	u, err := h.UploadService.ViewURL(r.Context(), userID, req.FileURL)
	if err != nil {
		writeError(w, h.Logger, "ViewURL", err)
		return
	}
	writeJSON(w, http.StatusOK, ViewURLResponse{URL: u})
}

// Upload загрузка файла через сервер (multipart, поле file)
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	// Лимит общего тела запроса
	maxFile := h.UploadService.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxFile+1*1024*1024)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Logger.Warnw("Upload: payload too large", "limit", maxFile)
			writeFail(w, http.StatusRequestEntityTooLarge, service.ReasonFileTooLarge, "payload too large")
			return
		}
		h.Logger.Warnw("Upload: invalid multipart form", "error", err)
		writeFail(w, http.StatusBadRequest, reasonInvalidRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.Logger.Warnw("Upload: missing file", "error", err)
		writeFail(w, http.StatusBadRequest, service.ReasonMissingField, "missing file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxFile+1))
	if err != nil {
		h.Logger.Warnw("Upload: failed to read file", "error", err)
		writeFail(w, http.StatusBadRequest, reasonInvalidRequest, "failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	ticket, err := h.UploadService.Upload(r.Context(), userID, header.Filename, contentType, data)
	if err != nil {
		writeError(w, h.Logger, "Upload", err)
		return
	}
	h.Logger.Infow("file uploaded", "user_id", userID, "key", ticket.Key, "size", len(data))
	writeJSON(w, http.StatusCreated, ticket)
}
