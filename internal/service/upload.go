package service

import (
	"VaultSync/internal/storage"
	"context"
	"strings"
)

// UploadService — подписанные ссылки и прямая загрузка файлов в объектное хранилище.
type UploadService struct {
	store    storage.ObjectStore
	maxBytes int64
}

// NewUploadService; store == nil означает, что хранилище не настроено.
func NewUploadService(store storage.ObjectStore, maxBytes int64) *UploadService {
	return &UploadService{store: store, maxBytes: maxBytes}
}

// UploadTicket — куда грузить файл и где он будет доступен.
type UploadTicket struct {
	UploadURL string `json:"upload_url,omitempty"`
	FileURL   string `json:"file_url"`
	Key       string `json:"key"`
}

// MaxBytes — лимит размера прямой загрузки.
func (s *UploadService) MaxBytes() int64 { return s.maxBytes }

func (s *UploadService) ready(userID string) error {
	if userID == "" {
		return unauthorized()
	}
	if s.store == nil {
		return newError(ErrUnavailable, ReasonStorageNotConfigured, "object storage is not configured")
	}
	return nil
}

// PresignUpload выдаёт PUT-ссылку на новый ключ uploads/<uuid>-<имя>.
func (s *UploadService) PresignUpload(ctx context.Context, userID, fileName, fileType string) (*UploadTicket, error) {
	if err := s.ready(userID); err != nil {
		return nil, err
	}
	fileName, fileType = strings.TrimSpace(fileName), strings.TrimSpace(fileType)
	if fileName == "" || fileType == "" {
		return nil, newError(ErrValidation, ReasonMissingField, "file_name and file_type are required")
	}
	key := storage.UploadKey(fileName)
	u, err := s.store.PresignPut(ctx, key, fileType)
	if err != nil {
		return nil, err
	}
	return &UploadTicket{UploadURL: u, FileURL: s.store.ObjectURL(key), Key: key}, nil
}

// ViewURL выдаёт GET-ссылку для сохранённого file_url.
func (s *UploadService) ViewURL(ctx context.Context, userID, fileURL string) (string, error) {
	if err := s.ready(userID); err != nil {
		return "", err
	}
	if strings.TrimSpace(fileURL) == "" {
		return "", missingField("file_url")
	}
	key, err := storage.KeyFromURL(fileURL, s.store.Bucket())
	if err != nil {
		return "", newError(ErrValidation, ReasonInvalidURL, "invalid file_url; could not derive object key")
	}
	return s.store.PresignGet(ctx, key)
}

// Upload кладёт файл в хранилище напрямую (через сервер).
func (s *UploadService) Upload(ctx context.Context, userID, fileName, contentType string, data []byte) (*UploadTicket, error) {
	if err := s.ready(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, missingField("file_name")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, newError(ErrValidation, ReasonFileTooLarge, "file exceeds upload limit")
	}
	key := storage.UploadKey(fileName)
	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return nil, err
	}
	return &UploadTicket{FileURL: s.store.ObjectURL(key), Key: key}, nil
}
