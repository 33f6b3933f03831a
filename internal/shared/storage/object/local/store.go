package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"blanknote-backend/internal/shared/storage/object"
	"blanknote-backend/internal/shared/util"
)

// Store implements BlobStore using the local filesystem. Saved images are
// served back under <baseURL>/images/<name>.
type Store struct {
	baseDir string
	baseURL string
}

// New creates a local blob store rooted at baseDir with URLs under baseURL.
func New(baseDir, baseURL string) object.BlobStore {
	return &Store{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put writes the reader to disk under the images namespace.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	sanitized, err := util.SanitizeFileName(name)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	dirPath := filepath.Join(s.baseDir, "images")
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	fullPath := filepath.Join(dirPath, sanitized)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write body: %w", err)
	}

	return s.baseURL + "/images/" + sanitized, nil
}

// ImagesDir returns the directory the router should serve as /images.
func (s *Store) ImagesDir() string {
	return filepath.Join(s.baseDir, "images")
}
