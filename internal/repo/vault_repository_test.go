package repo

import (
	"VaultSync/internal/model"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultRepository_CreateWithOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mkUser(t, db, "owner@example.com")
	vaults := NewVaultRepository(db)
	members := NewMembershipRepository(db)

	v := &model.Vault{Name: "Research", Description: "papers"}
	require.NoError(t, vaults.CreateWithOwner(ctx, v, owner.ID))
	assert.NotEmpty(t, v.ID)

	// создатель сразу OWNER
	role, ok, err := members.GetRole(ctx, owner.ID, v.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.RoleOwner, role)

	list, err := vaults.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	if assert.Len(t, list, 1) {
		assert.Equal(t, "Research", list[0].Name)
		assert.Equal(t, model.RoleOwner, list[0].Role)
	}

	// чужой пользователь хранилищ не видит
	stranger := mkUser(t, db, "stranger@example.com")
	none, err := vaults.ListForUser(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
	_, ok, err = members.GetRole(ctx, stranger.ID, v.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMembershipRepository_DuplicateAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mkUser(t, db, "o@example.com")
	guest := mkUser(t, db, "g@example.com")
	v := &model.Vault{Name: "V"}
	require.NoError(t, NewVaultRepository(db).CreateWithOwner(ctx, v, owner.ID))

	members := NewMembershipRepository(db)
	require.NoError(t, members.Create(ctx, &model.Membership{UserID: guest.ID, VaultID: v.ID, Role: model.RoleContributor}))

	// повторная пара — ErrAlreadyMember, исходная роль не меняется
	err := members.Create(ctx, &model.Membership{UserID: guest.ID, VaultID: v.ID, Role: model.RoleOwner})
	assert.ErrorIs(t, err, ErrAlreadyMember)
	role, _, err := members.GetRole(ctx, guest.ID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleContributor, role)

	list, err := members.ListMembers(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	emails := map[string]model.Role{}
	for _, m := range list {
		emails[m.Email] = m.Role
	}
	assert.Equal(t, model.RoleOwner, emails["o@example.com"])
	assert.Equal(t, model.RoleContributor, emails["g@example.com"])
}

// конкурентные приглашения одного пользователя: ровно одно проходит
func TestMembershipRepository_ConcurrentInsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mkUser(t, db, "o@example.com")
	guest := mkUser(t, db, "g@example.com")
	v := &model.Vault{Name: "V"}
	require.NoError(t, NewVaultRepository(db).CreateWithOwner(ctx, v, owner.ID))
	members := NewMembershipRepository(db)
	// SQLite в shared-cache режиме блокирует таблицу при параллельной записи,
	// поэтому сериализуем соединения: проверяем именно уникальный индекс.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = members.Create(ctx, &model.Membership{UserID: guest.ID, VaultID: v.ID, Role: model.RoleViewer})
		}(i)
	}
	wg.Wait()

	okCount, dupCount := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case err == ErrAlreadyMember:
			dupCount++
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, n-1, dupCount)
}
