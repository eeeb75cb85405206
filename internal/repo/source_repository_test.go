package repo

import (
	"VaultSync/internal/anchor"
	"VaultSync/internal/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestSourceRepository_CreateListUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mkUser(t, db, "o@example.com")
	v := &model.Vault{Name: "V"}
	require.NoError(t, NewVaultRepository(db).CreateWithOwner(ctx, v, owner.ID))
	r := NewSourceRepository(db)

	s1 := &model.Source{
		VaultID:   v.ID,
		URL:       "https://example.com",
		Title:     "Example",
		Metadata:  datatypes.NewJSONType(model.SourceMetadata{Description: "desc"}),
		AddedByID: owner.ID,
	}
	require.NoError(t, r.Create(ctx, s1))
	s2 := &model.Source{VaultID: v.ID, FileURL: "https://b/uploads/x.txt", FileKey: "uploads/x.txt", Title: "x.txt", AddedByID: owner.ID}
	require.NoError(t, r.Create(ctx, s2))

	list, err := r.ListByVault(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, s := range list {
		if s.ID == s1.ID {
			assert.Equal(t, "desc", s.Metadata.Data().Description)
		}
	}

	updated, err := r.UpdateContent(ctx, s2.ID, "hello text")
	require.NoError(t, err)
	assert.Equal(t, "hello text", updated.Content)

	_, err = r.UpdateContent(ctx, "missing", "x")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAnnotationRepository_PositionRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mkUser(t, db, "o@example.com")
	v := &model.Vault{Name: "V"}
	require.NoError(t, NewVaultRepository(db).CreateWithOwner(ctx, v, owner.ID))
	src := &model.Source{VaultID: v.ID, Title: "t", AddedByID: owner.ID, Content: "0123456789abcdefghijklmnop"}
	require.NoError(t, NewSourceRepository(db).Create(ctx, src))

	r := NewAnnotationRepository(db)
	pos, err := anchor.NewAnchored(10, 25, anchor.Slice(src.Content, 10, 25))
	require.NoError(t, err)
	require.NoError(t, r.Create(ctx, &model.Annotation{SourceID: src.ID, UserID: owner.ID, Content: "note", Position: pos}))
	require.NoError(t, r.Create(ctx, &model.Annotation{SourceID: src.ID, UserID: owner.ID, Content: "whole source"}))

	list, err := r.ListBySource(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byContent := map[string]model.Annotation{}
	for _, a := range list {
		byContent[a.Content] = a
	}
	anchored := byContent["note"]
	assert.True(t, anchored.Position.Anchored())
	assert.Equal(t, 10, anchored.Position.Start())
	assert.Equal(t, 25, anchored.Position.End())
	assert.Equal(t, "abcdefghijklmno", anchored.Position.SelectedText())
	if assert.NotNil(t, anchored.User) {
		assert.Equal(t, owner.Email, anchored.User.Email)
	}
	assert.False(t, byContent["whole source"].Position.Anchored())
}

func TestAuditRepository_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	r := NewAuditRepository(db)
	vaultID := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	require.NoError(t, r.Append(ctx, &model.AuditLogEntry{VaultID: vaultID, ActorID: "a", Action: model.ActionVaultCreated, Details: datatypes.JSON(`{"name":"V"}`)}))
	require.NoError(t, r.Append(ctx, &model.AuditLogEntry{VaultID: vaultID, ActorID: "a", Action: model.ActionSourceAdded}))

	list, err := r.ListByVault(ctx, vaultID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	actions := []string{list[0].Action, list[1].Action}
	assert.ElementsMatch(t, []string{model.ActionVaultCreated, model.ActionSourceAdded}, actions)
}
