package service

import (
	"VaultSync/internal/anchor"
	"VaultSync/internal/model"
	"VaultSync/internal/realtime"
	"VaultSync/internal/repo"
	"context"
	"strings"
)

// AnnotationService — заметки к источникам.
type AnnotationService struct {
	annotations repo.AnnotationRepository
	users       repo.UserRepository
	access      *AccessService
	fx          *followUps
}

func NewAnnotationService(
	annotations repo.AnnotationRepository,
	users repo.UserRepository,
	access *AccessService,
	c Collaborators,
) *AnnotationService {
	return &AnnotationService{annotations: annotations, users: users, access: access, fx: newFollowUps(c)}
}

// Selection — сырое выделение над текстовыми узлами содержимого источника.
// Без NodeLengths узлами считаются строки содержимого.
type Selection struct {
	NodeLengths []int        `json:"node_lengths,omitempty"`
	Anchor      anchor.Point `json:"anchor"`
	Focus       anchor.Point `json:"focus"`
}

// CreateAnnotationInput — новая аннотация: либо готовая позиция, либо выделение.
type CreateAnnotationInput struct {
	SourceID  string           `json:"source_id"`
	Content   string           `json:"content"`
	Position  *anchor.Position `json:"position,omitempty"`
	Selection *Selection       `json:"selection,omitempty"`
}

// Create сохраняет аннотацию и рассылает annotation_added группе источника.
func (s *AnnotationService) Create(ctx context.Context, userID string, in CreateAnnotationInput) (*model.Annotation, []Degradation, error) {
	if userID == "" {
		return nil, nil, unauthorized()
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, nil, missingField("content")
	}
	src, _, err := s.access.SourceFor(ctx, userID, in.SourceID, true)
	if err != nil {
		return nil, nil, err
	}
	pos, err := resolvePosition(src.Content, in)
	if err != nil {
		return nil, nil, err
	}

	a := &model.Annotation{SourceID: src.ID, UserID: userID, Content: in.Content, Position: pos}
	if err := s.annotations.Create(ctx, a); err != nil {
		return nil, nil, err
	}
	if u, err := s.users.GetUserByID(ctx, userID); err == nil {
		a.User = u
	}

	var ds []Degradation
	s.fx.record(ctx, &ds, src.VaultID, userID, model.ActionAnnotationAdded, map[string]any{
		"source_id": src.ID,
		"anchored":  pos.Anchored(),
	})
	s.fx.emit(&ds, realtime.SourceGroup(src.ID), realtime.EventAnnotationAdded, a)
	return a, ds, nil
}

// resolvePosition проверяет переданную позицию или захватывает выделение
// против содержимого источника.
func resolvePosition(content string, in CreateAnnotationInput) (anchor.Position, error) {
	length := anchor.RuneLen(content)
	invalid := func(msg string) error {
		return newError(ErrValidation, ReasonInvalidPosition, msg)
	}

	if in.Selection != nil {
		var ix *anchor.Index
		if len(in.Selection.NodeLengths) > 0 {
			var err error
			ix, err = anchor.NewIndex(in.Selection.NodeLengths)
			if err != nil {
				return anchor.Position{}, invalid(err.Error())
			}
			if ix.Total() != length {
				return anchor.Position{}, invalid("text nodes do not cover the source content")
			}
		} else {
			ix = anchor.IndexOf(anchor.Lines(content))
		}
		pos, ok, err := ix.Capture(content, in.Selection.Anchor, in.Selection.Focus)
		if err != nil {
			return anchor.Position{}, invalid(err.Error())
		}
		if !ok {
			return anchor.Unanchored(), nil
		}
		return pos, nil
	}

	if in.Position == nil || !in.Position.Anchored() {
		return anchor.Unanchored(), nil
	}
	p := *in.Position
	if p.Len() == 0 {
		return anchor.Unanchored(), nil
	}
	// Для источников без текстового содержимого (веб-страница) смещения
	// относятся к тексту, который видел клиент, и проверить их нечем.
	if length == 0 {
		if p.SelectedText() != "" && strings.TrimSpace(p.SelectedText()) == "" {
			return anchor.Unanchored(), nil
		}
		return p, nil
	}
	if p.End() > length {
		return anchor.Position{}, invalid("position exceeds source content length")
	}
	// Хранится ровно подстрока содержимого на момент создания.
	actual := anchor.Slice(content, p.Start(), p.End())
	if p.SelectedText() != "" && p.SelectedText() != actual {
		return anchor.Position{}, invalid("selected_text does not match source content at the given offsets")
	}
	if strings.TrimSpace(actual) == "" {
		return anchor.Unanchored(), nil
	}
	return anchor.NewAnchored(p.Start(), p.End(), actual)
}

// List — аннотации источника с авторами, в порядке создания.
func (s *AnnotationService) List(ctx context.Context, userID, sourceID string) ([]model.Annotation, error) {
	if _, _, err := s.access.SourceFor(ctx, userID, sourceID, false); err != nil {
		return nil, err
	}
	list, err := s.annotations.ListBySource(ctx, sourceID)
	if list == nil && err == nil {
		list = []model.Annotation{}
	}
	return list, err
}
