package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var _ Storage = (*LocalStorage)(nil)

// LocalStorage writes files below a root directory that the HTTP server
// exposes under baseURL.
type LocalStorage struct {
	root    string
	baseURL string
}

func NewLocalStorage(root, baseURL string) *LocalStorage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStorage{root: root, baseURL: baseURL}
}

func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Upload(_ context.Context, object *UploadObject) (*UploadResponse, error) {
	key := objectKey(object)
	dest := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, object.Data, 0o644); err != nil {
		return nil, fmt.Errorf("storage: writing %s: %w", dest, err)
	}

	return &UploadResponse{Key: key, URL: s.URL(key)}, nil
}

// Delete removes the file for key. A missing file is not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	dest, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: removing %s: %w", dest, err)
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + key
}

// resolve refuses keys that would escape the root.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
