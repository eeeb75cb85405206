package service

import (
	"VaultSync/internal/model"
	"VaultSync/internal/repo"
	"context"
	"errors"

	"gorm.io/gorm"
)

// AccessService проверяет членство и роли пользователей в хранилищах.
type AccessService struct {
	members repo.MembershipRepository
	sources repo.SourceRepository
}

func NewAccessService(members repo.MembershipRepository, sources repo.SourceRepository) *AccessService {
	return &AccessService{members: members, sources: sources}
}

// RequireMember возвращает роль пользователя или Forbidden not_a_member.
func (a *AccessService) RequireMember(ctx context.Context, userID, vaultID string) (model.Role, error) {
	if userID == "" {
		return "", unauthorized()
	}
	if vaultID == "" {
		return "", missingField("vault_id")
	}
	role, ok, err := a.members.GetRole(ctx, userID, vaultID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", newError(ErrForbidden, ReasonNotAMember, "access denied to this vault")
	}
	return role, nil
}

// RequireWriter — член хранилища с ролью выше VIEWER.
func (a *AccessService) RequireWriter(ctx context.Context, userID, vaultID string) (model.Role, error) {
	role, err := a.RequireMember(ctx, userID, vaultID)
	if err != nil {
		return "", err
	}
	if !role.CanWrite() {
		return "", newError(ErrForbidden, ReasonInsufficientRole, "insufficient permissions")
	}
	return role, nil
}

// SourceFor загружает источник и проверяет членство в его хранилище.
func (a *AccessService) SourceFor(ctx context.Context, userID, sourceID string, write bool) (*model.Source, model.Role, error) {
	if userID == "" {
		return nil, "", unauthorized()
	}
	if sourceID == "" {
		return nil, "", missingField("source_id")
	}
	src, err := a.sources.GetByID(ctx, sourceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", newError(ErrNotFound, ReasonSourceNotFound, "source not found")
	}
	if err != nil {
		return nil, "", err
	}
	check := a.RequireMember
	if write {
		check = a.RequireWriter
	}
	role, err := check(ctx, userID, src.VaultID)
	if err != nil {
		return nil, "", err
	}
	return src, role, nil
}

// AuthorizeVault — право вступить в группу хранилища.
func (a *AccessService) AuthorizeVault(ctx context.Context, userID, vaultID string) error {
	_, err := a.RequireMember(ctx, userID, vaultID)
	return err
}

// AuthorizeSource — право вступить в группу источника.
func (a *AccessService) AuthorizeSource(ctx context.Context, userID, sourceID string) error {
	_, _, err := a.SourceFor(ctx, userID, sourceID, false)
	return err
}
