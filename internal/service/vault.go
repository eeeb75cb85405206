package service

import (
	"VaultSync/internal/cache"
	"VaultSync/internal/model"
	"VaultSync/internal/repo"
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// VaultService — хранилища, участники и приглашения.
type VaultService struct {
	vaults  repo.VaultRepository
	members repo.MembershipRepository
	users   repo.UserRepository
	access  *AccessService
	fx      *followUps
}

func NewVaultService(
	vaults repo.VaultRepository,
	members repo.MembershipRepository,
	users repo.UserRepository,
	access *AccessService,
	c Collaborators,
) *VaultService {
	return &VaultService{vaults: vaults, members: members, users: users, access: access, fx: newFollowUps(c)}
}

// CreateVault создаёт хранилище; создатель становится OWNER в той же транзакции.
func (s *VaultService) CreateVault(ctx context.Context, userID, name, description string) (*model.Vault, []Degradation, error) {
	if userID == "" {
		return nil, nil, unauthorized()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, missingField("name")
	}
	v := &model.Vault{Name: name, Description: strings.TrimSpace(description)}
	if err := s.vaults.CreateWithOwner(ctx, v, userID); err != nil {
		return nil, nil, err
	}

	var ds []Degradation
	s.fx.record(ctx, &ds, v.ID, userID, model.ActionVaultCreated, map[string]any{"name": v.Name})
	s.fx.invalidatePattern(ctx, &ds, cache.VaultsPattern(userID))
	return v, ds, nil
}

// ListVaults — хранилища пользователя с его ролью, через кэш vaults:<userID>.
func (s *VaultService) ListVaults(ctx context.Context, userID string) ([]model.VaultSummary, error) {
	if userID == "" {
		return nil, unauthorized()
	}
	return readThrough(ctx, s.fx, cache.VaultsKey(userID), func(ctx context.Context) ([]model.VaultSummary, error) {
		list, err := s.vaults.ListForUser(ctx, userID)
		if list == nil && err == nil {
			list = []model.VaultSummary{}
		}
		return list, err
	})
}

// Members — список участников; доступен любому участнику хранилища.
func (s *VaultService) Members(ctx context.Context, userID, vaultID string) ([]model.Member, error) {
	if _, err := s.access.RequireMember(ctx, userID, vaultID); err != nil {
		return nil, err
	}
	list, err := s.members.ListMembers(ctx, vaultID)
	if list == nil && err == nil {
		list = []model.Member{}
	}
	return list, err
}

// Invite добавляет зарегистрированного пользователя в хранилище.
// Неизвестная роль трактуется как VIEWER; приглашать как OWNER может только OWNER.
func (s *VaultService) Invite(ctx context.Context, inviterID, vaultID, email, role string) (*model.Member, []Degradation, error) {
	if inviterID == "" {
		return nil, nil, unauthorized()
	}
	email = NormalizeEmail(email)
	if vaultID == "" {
		return nil, nil, missingField("vault_id")
	}
	if email == "" {
		return nil, nil, missingField("email")
	}
	target := model.ParseRole(strings.ToUpper(strings.TrimSpace(role)))

	inviterRole, err := s.access.RequireMember(ctx, inviterID, vaultID)
	if err != nil {
		return nil, nil, err
	}
	if !inviterRole.CanInvite() {
		return nil, nil, newError(ErrForbidden, ReasonInsufficientRole, "only owners and contributors can invite others")
	}
	if target == model.RoleOwner && inviterRole != model.RoleOwner {
		return nil, nil, newError(ErrForbidden, ReasonOwnerRoleNeedsOwner, "only owners can invite as owner")
	}

	invitee, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, newError(ErrNotFound, ReasonUserNotRegistered, "no user found with that email; they must register first")
	}
	if err != nil {
		return nil, nil, err
	}
	if invitee.ID == inviterID {
		return nil, nil, newError(ErrConflict, ReasonSelfInvite, "you are already in this vault")
	}

	m := &model.Membership{UserID: invitee.ID, VaultID: vaultID, Role: target}
	if err := s.members.Create(ctx, m); err != nil {
		if errors.Is(err, repo.ErrAlreadyMember) {
			return nil, nil, newError(ErrConflict, ReasonAlreadyMember, "this user is already a member")
		}
		return nil, nil, err
	}

	var ds []Degradation
	s.fx.record(ctx, &ds, vaultID, inviterID, model.ActionUserInvited, map[string]any{
		"email":      invitee.Email,
		"invitee_id": invitee.ID,
		"role":       string(target),
	})
	s.fx.invalidatePattern(ctx, &ds, cache.VaultsPattern(invitee.ID))
	s.fx.invalidatePattern(ctx, &ds, cache.VaultsPattern(inviterID))

	return &model.Member{
		UserID:   invitee.ID,
		Name:     invitee.Name,
		Email:    invitee.Email,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}, ds, nil
}
