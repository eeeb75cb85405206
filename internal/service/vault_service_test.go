package service

import (
	"VaultSync/internal/cache"
	"VaultSync/internal/model"
	"VaultSync/internal/realtime"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario A: владелец создаёт хранилище, приглашает участника, участник
// добавляет источник, событие уходит в группу хранилища.
func TestScenario_CreateInviteAddSource(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	u1 := e.register(t, "u1@example.com", "U1")
	u2 := e.register(t, "u2@example.com", "U2")

	v, ds, err := e.vaults.CreateVault(ctx, u1.ID, "Research", "papers")
	require.NoError(t, err)
	assert.Empty(t, ds)

	vaults, err := e.vaults.ListVaults(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, vaults, 1)
	assert.Equal(t, model.RoleOwner, vaults[0].Role)

	m, ds, err := e.vaults.Invite(ctx, u1.ID, v.ID, "U2@example.com", "CONTRIBUTOR")
	require.NoError(t, err)
	assert.Empty(t, ds)
	assert.Equal(t, model.RoleContributor, m.Role)

	members, err := e.vaults.Members(ctx, u1.ID, v.ID)
	require.NoError(t, err)
	roles := map[string]model.Role{}
	for _, mem := range members {
		roles[mem.Email] = mem.Role
	}
	assert.Equal(t, map[string]model.Role{"u1@example.com": model.RoleOwner, "u2@example.com": model.RoleContributor}, roles)

	src, ds, err := e.sources.Create(ctx, u2.ID, CreateSourceInput{VaultID: v.ID, URL: "https://example.com"})
	require.NoError(t, err)
	assert.Empty(t, ds)
	assert.Equal(t, "Example Domain", src.Title)
	assert.Equal(t, "An example", src.Metadata.Data().Description)

	events := e.bus.all()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.VaultGroup(v.ID), events[0].Group)
	assert.Equal(t, realtime.EventSourceAdded, events[0].Type)
	assert.Equal(t, src.ID, events[0].Data.(*model.Source).ID)

	audit, err := e.auditRepo.ListByVault(ctx, v.ID)
	require.NoError(t, err)
	var actions []string
	for _, a := range audit {
		actions = append(actions, a.Action)
	}
	assert.ElementsMatch(t, []string{model.ActionVaultCreated, model.ActionUserInvited, model.ActionSourceAdded}, actions)
}

// Scenario C: приглашение незарегистрированного email.
func TestInvite_UnregisteredEmail(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	owner := e.register(t, "owner@example.com", "Owner")
	v := e.vaultWith(t, owner, nil)

	_, _, err := e.vaults.Invite(ctx, owner.ID, v.ID, "ghost@example.com", "VIEWER")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ReasonUserNotRegistered, ReasonOf(err))
	assert.Contains(t, err.Error(), "register")

	members, err := e.vaults.Members(ctx, owner.ID, v.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

// Scenario D: повторное приглашение участника.
func TestInvite_AlreadyMember(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	owner := e.register(t, "owner@example.com", "Owner")
	u2 := e.register(t, "u2@example.com", "U2")
	v := e.vaultWith(t, owner, map[*model.User]model.Role{u2: model.RoleContributor})

	_, _, err := e.vaults.Invite(ctx, owner.ID, v.ID, u2.Email, "VIEWER")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, ReasonAlreadyMember, ReasonOf(err))

	role, ok, err := e.members.GetRole(ctx, u2.ID, v.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.RoleContributor, role)

	members, err := e.vaults.Members(ctx, owner.ID, v.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestInvite_RoleRules(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	owner := e.register(t, "owner@example.com", "Owner")
	contrib := e.register(t, "c@example.com", "C")
	viewer := e.register(t, "v@example.com", "V")
	target := e.register(t, "t@example.com", "T")
	other := e.register(t, "o@example.com", "O")
	stranger := e.register(t, "s@example.com", "S")
	v := e.vaultWith(t, owner, map[*model.User]model.Role{contrib: model.RoleContributor, viewer: model.RoleViewer})

	t.Run("self invite", func(t *testing.T) {
		_, _, err := e.vaults.Invite(ctx, owner.ID, v.ID, owner.Email, "VIEWER")
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, ReasonSelfInvite, ReasonOf(err))
	})

	t.Run("viewer cannot invite", func(t *testing.T) {
		_, _, err := e.vaults.Invite(ctx, viewer.ID, v.ID, target.Email, "VIEWER")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, ReasonInsufficientRole, ReasonOf(err))
	})

	t.Run("contributor cannot invite as owner", func(t *testing.T) {
		_, _, err := e.vaults.Invite(ctx, contrib.ID, v.ID, target.Email, "OWNER")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, ReasonOwnerRoleNeedsOwner, ReasonOf(err))
	})

	t.Run("stranger cannot invite", func(t *testing.T) {
		_, _, err := e.vaults.Invite(ctx, stranger.ID, v.ID, target.Email, "VIEWER")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, ReasonNotAMember, ReasonOf(err))
	})

	t.Run("unknown role defaults to viewer", func(t *testing.T) {
		m, _, err := e.vaults.Invite(ctx, contrib.ID, v.ID, target.Email, "admin")
		require.NoError(t, err)
		assert.Equal(t, model.RoleViewer, m.Role)
	})

	t.Run("owner may invite as owner", func(t *testing.T) {
		m, _, err := e.vaults.Invite(ctx, owner.ID, v.ID, other.Email, "owner")
		require.NoError(t, err)
		assert.Equal(t, model.RoleOwner, m.Role)
	})

	t.Run("members list requires membership", func(t *testing.T) {
		_, err := e.vaults.Members(ctx, stranger.ID, v.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestListVaults_InvalidatedByInvite(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	owner := e.register(t, "owner@example.com", "Owner")
	u2 := e.register(t, "u2@example.com", "U2")
	v := e.vaultWith(t, owner, nil)

	before, err := e.vaults.ListVaults(ctx, u2.ID)
	require.NoError(t, err)
	assert.Empty(t, before)
	_, ok, _ := e.cache.Get(ctx, cache.VaultsKey(u2.ID))
	require.True(t, ok, "list must be cached")

	_, _, err = e.vaults.Invite(ctx, owner.ID, v.ID, u2.Email, "VIEWER")
	require.NoError(t, err)

	after, err := e.vaults.ListVaults(ctx, u2.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, v.ID, after[0].ID)
	assert.Equal(t, model.RoleViewer, after[0].Role)
}

func TestCreateVault_Validation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	u := e.register(t, "u@example.com", "U")

	_, _, err := e.vaults.CreateVault(ctx, u.ID, "   ", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = e.vaults.CreateVault(ctx, "", "V", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
