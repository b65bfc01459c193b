package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/infrastructure/logger"
)

var keyPattern = regexp.MustCompile(`^[0-9a-f]{32}\.(png|jpg|jpeg)$`)

func TestIntake_AcceptsSupportedExtensions(t *testing.T) {
	store := newCountingStorage()
	svc := NewIntakeService(store, logger.Discard())
	ctx := context.Background()

	for _, name := range []string{"a.png", "a.PNG", "a.Png", "b.jpg", "b.JPG", "b.jPg", "c.jpeg", "c.JPEG", "c.JpEg", "archive.tar.png"} {
		ref, err := svc.ValidateAndStore(ctx, name, []byte("data"), DefaultMaxUploadSize)
		require.NoError(t, err, name)
		require.Regexp(t, keyPattern, ref.Key)
		require.Equal(t, name, ref.Filename)
	}
	require.Equal(t, int32(10), store.puts.Load())
}

func TestIntake_RejectsOtherExtensions(t *testing.T) {
	store := newCountingStorage()
	svc := NewIntakeService(store, logger.Discard())
	ctx := context.Background()

	for _, name := range []string{"a.gif", "a.GIF", "a.bmp", "a.webp", "png", "a.png.exe", "a.", "noext", "dir/"} {
		_, err := svc.ValidateAndStore(ctx, name, []byte("data"), DefaultMaxUploadSize)
		require.ErrorIs(t, err, entity.ErrUnsupportedExtension, name)
	}
	require.Zero(t, store.puts.Load())
}

func TestIntake_MissingFile(t *testing.T) {
	store := newCountingStorage()
	svc := NewIntakeService(store, logger.Discard())

	_, err := svc.ValidateAndStore(context.Background(), "a.png", nil, DefaultMaxUploadSize)
	require.ErrorIs(t, err, entity.ErrMissingFile)

	_, err = svc.ValidateAndStore(context.Background(), "", []byte{}, DefaultMaxUploadSize)
	require.ErrorIs(t, err, entity.ErrMissingFile)
	require.Zero(t, store.puts.Load())
}

func TestIntake_EmptyFilename(t *testing.T) {
	store := newCountingStorage()
	svc := NewIntakeService(store, logger.Discard())

	for _, name := range []string{"", "   ", "..", "/"} {
		_, err := svc.ValidateAndStore(context.Background(), name, []byte("data"), DefaultMaxUploadSize)
		require.ErrorIs(t, err, entity.ErrEmptyFilename, fmt.Sprintf("%q", name))
	}
	require.Zero(t, store.puts.Load())
}

func TestIntake_PayloadTooLarge(t *testing.T) {
	store := newCountingStorage()
	svc := NewIntakeService(store, logger.Discard())

	_, err := svc.ValidateAndStore(context.Background(), "a.png", make([]byte, 11), 10)
	require.ErrorIs(t, err, entity.ErrPayloadTooLarge)
	require.Zero(t, store.puts.Load())

	_, err = svc.ValidateAndStore(context.Background(), "a.png", make([]byte, 10), 10)
	require.NoError(t, err)
}

func TestIntake_PathTraversal(t *testing.T) {
	store := newCountingStorage()
	svc := NewIntakeService(store, logger.Discard())

	ref, err := svc.ValidateAndStore(context.Background(), `../../etc/..\evil.png`, []byte("data"), DefaultMaxUploadSize)
	require.NoError(t, err)
	require.Equal(t, "evil.png", ref.Filename)
	require.Regexp(t, keyPattern, ref.Key)
	require.NotContains(t, ref.Key, "evil")
}

func TestIntake_StorageFailure(t *testing.T) {
	svc := NewIntakeService(newCountingStorage(), logger.Discard())
	svc.newToken = func() (string, error) { return "", errors.New("no entropy") }

	_, err := svc.ValidateAndStore(context.Background(), "a.png", []byte("data"), DefaultMaxUploadSize)
	require.ErrorContains(t, err, "no entropy")
}

func TestIntake_UniqueKeysUnderConcurrency(t *testing.T) {
	store := newCountingStorage()
	svc := NewIntakeService(store, logger.Discard())
	ctx := context.Background()

	const n = 64
	keys := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref, err := svc.ValidateAndStore(ctx, "same.jpg", []byte("data"), DefaultMaxUploadSize)
			require.NoError(t, err)
			keys[i] = ref.Key
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	require.Len(t, seen, n)
	require.Equal(t, n, store.Len())
}

func TestSanitizeFilename(t *testing.T) {
	for in, want := range map[string]string{
		"cat.jpg":            "cat.jpg",
		"/tmp/cat.jpg":       "cat.jpg",
		`C:\Users\me\a.png`:  "a.png",
		"a\x00b\n.png":       "ab.png",
		"  spaced name.png ": "spaced name.png",
		"..":                 "",
		"":                   "",
	} {
		require.Equal(t, want, SanitizeFilename(in), in)
	}
}
