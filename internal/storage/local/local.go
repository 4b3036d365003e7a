package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ondrasimku/vision-service/internal/storage"
)

// LocalStorage keeps uploads in a single directory, named after the
// sanitized client filename. Saving the same name twice replaces the file.
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalStorage{baseDir: baseDir}, nil
}

func (s *LocalStorage) Dir() string {
	return s.baseDir
}

func (s *LocalStorage) Save(ctx context.Context, r io.Reader, opts storage.SaveOptions) (storage.FileInfo, error) {
	if !storage.ValidID(opts.Filename) {
		return storage.FileInfo{}, fmt.Errorf("invalid filename %q", opts.Filename)
	}

	filePath := filepath.Join(s.baseDir, opts.Filename)
	file, err := os.Create(filePath)
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, r)
	if err != nil {
		os.Remove(filePath)
		return storage.FileInfo{}, fmt.Errorf("failed to write file: %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeFor(opts.Filename)
	}

	return storage.FileInfo{
		ID:          opts.Filename,
		Path:        filePath,
		ContentType: contentType,
		Size:        size,
		URL:         storage.URL(opts.Filename),
	}, nil
}

func (s *LocalStorage) Open(ctx context.Context, id string) (io.ReadCloser, storage.FileInfo, error) {
	if !storage.ValidID(id) {
		return nil, storage.FileInfo{}, storage.ErrNotFound
	}

	filePath := filepath.Join(s.baseDir, id)
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.FileInfo{}, storage.ErrNotFound
		}
		return nil, storage.FileInfo{}, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, storage.FileInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, storage.FileInfo{}, storage.ErrNotFound
	}

	info := storage.FileInfo{
		ID:          id,
		Path:        filePath,
		ContentType: storage.ContentTypeFor(id),
		Size:        stat.Size(),
		URL:         storage.URL(id),
	}

	return file, info, nil
}

func (s *LocalStorage) Delete(ctx context.Context, id string) error {
	if !storage.ValidID(id) {
		return storage.ErrNotFound
	}

	if err := os.Remove(filepath.Join(s.baseDir, id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
