package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authgate/api/internal/models"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	user := models.User{
		ID:           "user_1",
		Email:        "a@example.com",
		PasswordHash: []byte("hash"),
		Name:         "Ana",
		Role:         models.UserRoleStudent,
		AuthProvider: models.AuthProviderEmail,
	}
	require.NoError(t, store.Create(ctx, user))
	assert.ErrorIs(t, store.Create(ctx, user), ErrEmailTaken)

	found, err := store.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Nil(t, found.PasswordHash)

	creds, err := store.FindCredentialsByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), creds.PasswordHash)

	byID, err := store.GetByID(ctx, "user_1")
	require.NoError(t, err)
	assert.Nil(t, byID.PasswordHash)
	assert.Equal(t, "Ana", byID.Name)

	_, err = store.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = store.GetByID(ctx, "user_x")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, models.User{ID: "user_1", Email: "a@example.com", Name: "Ana"}))

	name := "Ana Maria"
	require.NoError(t, store.UpdateByEmail(ctx, "a@example.com", models.UserUpdate{Name: &name}))

	googleID := "g-1"
	require.NoError(t, store.UpdateByID(ctx, "user_1", models.UserUpdate{GoogleID: &googleID}))

	got, err := store.GetByID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, "g-1", *got.GoogleID)

	assert.ErrorIs(t, store.UpdateByID(ctx, "user_x", models.UserUpdate{Name: &name}), ErrUserNotFound)
	assert.ErrorIs(t, store.UpdateByEmail(ctx, "x@example.com", models.UserUpdate{Name: &name}), ErrUserNotFound)
}

func TestMemorySessionsOnePerUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	first := models.Session{UserID: "user_1", SessionToken: "session_a", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	second := models.Session{UserID: "user_1", SessionToken: "session_b", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	require.NoError(t, store.UpsertForUser(ctx, first))
	require.NoError(t, store.UpsertForUser(ctx, second))

	_, err := store.FindByToken(ctx, "session_a")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := store.FindByToken(ctx, "session_b")
	require.NoError(t, err)
	assert.Equal(t, "user_1", got.UserID)

	require.NoError(t, store.DeleteByToken(ctx, "session_b"))
	assert.ErrorIs(t, store.DeleteByToken(ctx, "session_b"), ErrSessionNotFound)
}

func TestUpdateAssignments(t *testing.T) {
	name := "Ana"
	provider := models.AuthProviderHybrid
	sets, args := updateAssignments(models.UserUpdate{Name: &name, AuthProvider: &provider})

	assert.Equal(t, []string{"name = $1", "auth_provider = $2"}, sets)
	assert.Equal(t, []any{"Ana", "hybrid"}, args)
}
