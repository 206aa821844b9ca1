// Package avatar persists processed profile pictures and returns the URL
// they are served from.
package avatar

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store saves an encoded image under key.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// LocalStore writes avatars below Base; they are served by the HTTP server
// under URLPrefix.
type LocalStore struct {
	Base      string
	URLPrefix string
}

func NewLocalStore(base string) *LocalStore {
	return &LocalStore{Base: base, URLPrefix: "/uploads"}
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid avatar key %q", key)
	}
	dst := filepath.Join(s.Base, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return s.URLPrefix + "/" + clean, nil
}
