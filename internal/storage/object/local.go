package object

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs under a directory served as static files.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	// Keys may carry path separators for per-session grouping.
	key = filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}
