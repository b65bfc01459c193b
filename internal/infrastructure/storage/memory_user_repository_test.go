package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"inventory-vision/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesUser(t *testing.T) {
	repo := NewMemoryUserRepository()

	user, err := repo.Get(context.Background(), 7, 70)
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)
	require.Equal(t, int64(70), user.ChatID)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestMemoryUserRepository_ChangesVisibleAfterSave(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 1, 1)
	require.NoError(t, err)
	user.SetState(entity.StateProcessing)

	stored, err := repo.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, stored.State)

	require.NoError(t, repo.Save(ctx, user))
	stored, err = repo.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, stored.State)
}
