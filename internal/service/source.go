package service

import (
	"VaultSync/internal/anchor"
	"VaultSync/internal/cache"
	"VaultSync/internal/metadata"
	"VaultSync/internal/model"
	"VaultSync/internal/realtime"
	"VaultSync/internal/repo"
	"context"
	"errors"
	"net/url"
	"path"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SourceService — источники хранилища: добавление, чтение, содержимое и подсветка.
type SourceService struct {
	sources     repo.SourceRepository
	annotations repo.AnnotationRepository
	access      *AccessService
	fetcher     metadata.Fetcher
	fx          *followUps
}

func NewSourceService(
	sources repo.SourceRepository,
	annotations repo.AnnotationRepository,
	access *AccessService,
	fetcher metadata.Fetcher,
	c Collaborators,
) *SourceService {
	return &SourceService{sources: sources, annotations: annotations, access: access, fetcher: fetcher, fx: newFollowUps(c)}
}

// CreateSourceInput — поля нового источника. Нужен URL или FileURL.
type CreateSourceInput struct {
	VaultID string `json:"vault_id"`
	URL     string `json:"url"`
	FileURL string `json:"file_url"`
	FileKey string `json:"file_key"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create добавляет источник. Для ссылки без файла подтягивает заголовок и описание
// страницы; сбой загрузки даёт title = URL и пустое описание.
func (s *SourceService) Create(ctx context.Context, userID string, in CreateSourceInput) (*model.Source, []Degradation, error) {
	if userID == "" {
		return nil, nil, unauthorized()
	}
	in.URL = strings.TrimSpace(in.URL)
	in.FileURL = strings.TrimSpace(in.FileURL)
	in.Title = strings.TrimSpace(in.Title)
	if in.VaultID == "" {
		return nil, nil, missingField("vault_id")
	}
	if in.URL == "" && in.FileURL == "" {
		return nil, nil, newError(ErrValidation, ReasonMissingField, "either url or file_url is required")
	}
	for _, raw := range []string{in.URL, in.FileURL} {
		if raw != "" && !validHTTPURL(raw) {
			return nil, nil, newError(ErrValidation, ReasonInvalidURL, "invalid url: "+raw)
		}
	}
	if _, err := s.access.RequireWriter(ctx, userID, in.VaultID); err != nil {
		return nil, nil, err
	}

	var ds []Degradation
	var meta model.SourceMetadata
	title := in.Title
	if in.URL != "" && in.FileURL == "" {
		page, err := s.fetchMetadata(ctx, in.URL)
		if err != nil {
			s.fx.degrade(&ds, DepMetadata, err)
			page = metadata.Page{}
		}
		if title == "" {
			title = page.Title
		}
		if title == "" {
			title = in.URL
		}
		meta.Description = page.Description
	}
	if title == "" {
		title = fileTitle(in.FileKey, in.FileURL)
	}

	src := &model.Source{
		VaultID:   in.VaultID,
		URL:       in.URL,
		FileURL:   in.FileURL,
		FileKey:   in.FileKey,
		Title:     title,
		Metadata:  datatypes.NewJSONType(meta),
		Content:   in.Content,
		AddedByID: userID,
	}
	if err := s.sources.Create(ctx, src); err != nil {
		return nil, nil, err
	}

	s.fx.record(ctx, &ds, src.VaultID, userID, model.ActionSourceAdded, map[string]any{
		"title": src.Title,
		"url":   firstNonEmpty(src.URL, src.FileURL),
	})
	s.fx.invalidate(ctx, &ds, cache.SourcesKey(src.VaultID))
	s.fx.emit(&ds, realtime.VaultGroup(src.VaultID), realtime.EventSourceAdded, src)
	return src, ds, nil
}

func (s *SourceService) fetchMetadata(ctx context.Context, rawURL string) (metadata.Page, error) {
	if s.fetcher == nil {
		return metadata.Page{}, nil
	}
	// таймаут задаёт сам fetcher (METADATA_TIMEOUT)
	return s.fetcher.Fetch(ctx, rawURL)
}

// List — источники хранилища в порядке добавления, через кэш sources:<vaultID>.
func (s *SourceService) List(ctx context.Context, userID, vaultID string) ([]model.Source, error) {
	if _, err := s.access.RequireMember(ctx, userID, vaultID); err != nil {
		return nil, err
	}
	return readThrough(ctx, s.fx, cache.SourcesKey(vaultID), func(ctx context.Context) ([]model.Source, error) {
		list, err := s.sources.ListByVault(ctx, vaultID)
		if list == nil && err == nil {
			list = []model.Source{}
		}
		return list, err
	})
}

// Get — один источник; доступен участникам хранилища.
func (s *SourceService) Get(ctx context.Context, userID, sourceID string) (*model.Source, error) {
	src, _, err := s.access.SourceFor(ctx, userID, sourceID, false)
	return src, err
}

// UpdateContent заменяет plain-text содержимое. Смещения существующих
// аннотаций не пересчитываются.
func (s *SourceService) UpdateContent(ctx context.Context, userID, sourceID, content string) (*model.Source, []Degradation, error) {
	src, _, err := s.access.SourceFor(ctx, userID, sourceID, true)
	if err != nil {
		return nil, nil, err
	}
	updated, err := s.sources.UpdateContent(ctx, src.ID, content)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, newError(ErrNotFound, ReasonSourceNotFound, "source not found")
	}
	if err != nil {
		return nil, nil, err
	}

	var ds []Degradation
	s.fx.record(ctx, &ds, updated.VaultID, userID, model.ActionSourceUpdated, map[string]any{
		"source_id": updated.ID,
		"length":    anchor.RuneLen(content),
	})
	s.fx.invalidate(ctx, &ds, cache.SourcesKey(updated.VaultID))
	s.fx.emit(&ds, realtime.VaultGroup(updated.VaultID), realtime.EventSourceUpdated, updated)
	return updated, ds, nil
}

// Highlights — разбиение содержимого источника на сегменты по аннотациям.
type Highlights struct {
	SourceID string           `json:"source_id"`
	Length   int              `json:"length"`
	Segments []anchor.Segment `json:"segments"`
}

// Highlights рендерит привязанные аннотации источника поверх его содержимого.
func (s *SourceService) Highlights(ctx context.Context, userID, sourceID string) (*Highlights, error) {
	src, _, err := s.access.SourceFor(ctx, userID, sourceID, false)
	if err != nil {
		return nil, err
	}
	list, err := s.annotations.ListBySource(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	spans := make([]anchor.Span, 0, len(list))
	for _, a := range list {
		spans = append(spans, anchor.Span{ID: a.ID, Position: a.Position})
	}
	segments := anchor.Render(src.Content, spans)
	if segments == nil {
		segments = []anchor.Segment{}
	}
	return &Highlights{SourceID: src.ID, Length: anchor.RuneLen(src.Content), Segments: segments}, nil
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func fileTitle(key, fileURL string) string {
	name := key
	if name == "" {
		if u, err := url.Parse(fileURL); err == nil {
			name = u.Path
		}
	}
	name = path.Base(name)
	// ключи загрузок имеют вид uploads/<uuid>-<имя>
	if len(name) > 37 && name[36] == '-' {
		name = name[37:]
	}
	if name == "" || name == "." || name == "/" {
		return fileURL
	}
	return name
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
