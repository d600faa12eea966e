// Package media stores post attachments.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// Store persists attachment bytes and resolves references to public URLs
type Store interface {
	// Save stores r under a fresh key for kind and returns the reference
	// to keep on the post
	Save(ctx context.Context, kind domain.AttachmentKind, filename, contentType string, r io.Reader, size int64) (string, error)

	// Remove deletes a stored reference. Missing objects are not an error.
	Remove(ctx context.Context, ref string) error

	// URL returns the public URL of ref
	URL(ref string) string

	// Name identifies the backend in logs and health output
	Name() string
}

// objectKey builds "<kind dir>/<uuid><ext>"; the original name is only
// used for its extension
func objectKey(kind domain.AttachmentKind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(kind.Dir(), uuid.NewString()+ext)
}

// joinURL joins a base URL and a key with exactly one slash
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}
