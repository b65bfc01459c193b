package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/infrastructure/storage"
)

func TestUserService_BeginDetectAndCancel(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	user, err := svc.BeginDetect(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingImage, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_TryStartProcessing(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	ok, err := svc.TryStartProcessing(ctx, 3, 30)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.TryStartProcessing(ctx, 3, 30)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.AbortProcessing(ctx, 3, 30)
	require.NoError(t, err)

	ok, err = svc.TryStartProcessing(ctx, 3, 30)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestUserService_CommandsDoNotClearProcessing(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	ok, err := svc.TryStartProcessing(ctx, 5, 50)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Cancel(ctx, 5, 50)
	require.ErrorIs(t, err, entity.ErrBusy)

	_, err = svc.BeginDetect(ctx, 5, 50)
	require.ErrorIs(t, err, entity.ErrBusy)

	user, err := svc.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.True(t, user.IsBusy())

	// Повторная загрузка всё ещё отсекается
	ok, err = svc.TryStartProcessing(ctx, 5, 50)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUserService_FinishProcessing(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	ok, err := svc.TryStartProcessing(ctx, 4, 40)
	require.NoError(t, err)
	require.True(t, ok)

	user, err := svc.FinishProcessing(ctx, 4, 40, "detected_abc.png")
	require.NoError(t, err)
	require.False(t, user.IsBusy())

	user, err = svc.Get(ctx, 4, 40)
	require.NoError(t, err)
	require.Equal(t, "detected_abc.png", user.LastResult)
	require.Equal(t, 1, user.Processed)
}
