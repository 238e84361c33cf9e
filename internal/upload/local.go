package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalUploader writes images to a directory on the local filesystem and
// returns a URL under the given public base path.
//
// Meant for development and single-server deployments where the HTTP server
// also serves the upload directory as static files.
type LocalUploader struct {
	dir     string // filesystem directory uploads are written under
	baseURL string // public prefix returned to callers, e.g. "/uploads"
}

// NewLocalUploader creates the upload directory if needed and returns an
// uploader rooted there.
func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating upload dir %s: %w", dir, err)
	}
	return &LocalUploader{dir: dir, baseURL: baseURL}, nil
}

// Upload streams r into a file under the upload directory and returns its
// public URL.
func (u *LocalUploader) Upload(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	key := storageKey(userID, filename)

	path := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("upload: creating directory for %s: %w", key, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("upload: creating file %s: %w", key, err)
	}

	// io.Copy respects neither context nor size limits by itself; the
	// handler has already clamped the reader, and local disk writes are
	// fast enough that cancellation mid-copy isn't worth the machinery.
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path) // don't leave half-written images behind
		return "", fmt.Errorf("upload: writing file %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("upload: closing file %s: %w", key, err)
	}

	return u.baseURL + "/" + key, nil
}
