package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// LocalStore keeps attachments under a directory served at baseURL
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a filesystem store rooted at root
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

// Root returns the directory attachments are written to
func (s *LocalStore) Root() string {
	return s.root
}

// Save writes r to a temp file and renames it into place
func (s *LocalStore) Save(ctx context.Context, kind domain.AttachmentKind, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := objectKey(kind, filename)
	dst := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", storageError("mkdir", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", storageError("create", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", storageError("write", err)
	}
	if err := tmp.Close(); err != nil {
		return "", storageError("close", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", storageError("rename", err)
	}

	return key, nil
}

// Remove deletes the file behind ref
func (s *LocalStore) Remove(ctx context.Context, ref string) error {
	if ref == "" || strings.Contains(ref, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageError("remove", err)
	}
	return nil
}

// URL returns baseURL joined with ref
func (s *LocalStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return joinURL(s.baseURL, ref)
}

// Name returns "local"
func (s *LocalStore) Name() string {
	return "local"
}
