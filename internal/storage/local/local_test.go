package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrasimku/vision-service/internal/storage"
)

func newStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func TestNewLocalStorageCreatesDirectory(t *testing.T) {
	s := newStorage(t)
	stat, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestSaveAndOpen(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	info, err := s.Save(ctx, strings.NewReader("pixels"), storage.SaveOptions{Filename: "car.png"})
	require.NoError(t, err)
	assert.Equal(t, "car.png", info.ID)
	assert.Equal(t, int64(6), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, "/uploads/car.png", info.URL)
	assert.Equal(t, filepath.Join(s.Dir(), "car.png"), info.Path)

	rc, opened, err := s.Open(ctx, "car.png")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
	assert.Equal(t, int64(6), opened.Size)
}

func TestSaveOverwritesSameName(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	_, err := s.Save(ctx, strings.NewReader("first"), storage.SaveOptions{Filename: "car.jpg"})
	require.NoError(t, err)
	_, err = s.Save(ctx, strings.NewReader("second!"), storage.SaveOptions{Filename: "car.jpg"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(s.Dir(), "car.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "second!", string(data))
}

func TestSaveRejectsTraversal(t *testing.T) {
	s := newStorage(t)
	_, err := s.Save(context.Background(), strings.NewReader("x"), storage.SaveOptions{Filename: "../escape.png"})
	assert.Error(t, err)
}

func TestOpenMissing(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	_, _, err := s.Open(ctx, "missing.png")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, _, err = s.Open(ctx, "../local.go")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	_, err := s.Save(ctx, strings.NewReader("x"), storage.SaveOptions{Filename: "face.jpeg"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "face.jpeg"))
	assert.ErrorIs(t, s.Delete(ctx, "face.jpeg"), storage.ErrNotFound)
}
