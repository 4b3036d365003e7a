package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var ErrNotFound = errors.New("file not found")

type SaveOptions struct {
	Filename    string
	ContentType string
}

type FileInfo struct {
	ID          string
	Path        string
	ContentType string
	Size        int64
	URL         string
}

type Storage interface {
	Save(ctx context.Context, r io.Reader, opts SaveOptions) (FileInfo, error)
	Open(ctx context.Context, id string) (io.ReadCloser, FileInfo, error)
	Delete(ctx context.Context, id string) error
}

// URL is the path under which the HTTP layer serves a stored file.
func URL(id string) string {
	return "/uploads/" + id
}

// ValidID reports whether id names a single file with no path components.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && path.Clean(id) == id
}

// ContentTypeFor guesses an image content type from a file name.
func ContentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
