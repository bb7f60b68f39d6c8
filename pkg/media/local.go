package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// VideoSubdir is the directory under the upload root that holds videos.
const VideoSubdir = "videos"

// LocalStore writes blobs under a directory served by the static upload endpoint.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a store rooted at dir whose files are reachable under baseURL
// (for example "http://localhost:8080/static/uploads").
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Dir returns the upload root.
func (s *LocalStore) Dir() string { return s.dir }

// EnsureDirs creates the upload root and the video directory. Safe to call repeatedly.
func (s *LocalStore) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Join(s.dir, VideoSubdir), 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// Store writes the blob as <random hex>_<name>. Videos go to the video directory.
func (s *LocalStore) Store(ctx context.Context, blob Blob, kind Kind) (string, error) {
	fail := func(err error) (string, error) {
		return "", &UploadError{Backend: "local", Name: blob.Name, Err: err}
	}
	if blob.Body == nil {
		return fail(errors.New("empty body"))
	}
	if err := s.EnsureDirs(); err != nil {
		return fail(err)
	}

	filename := strings.ReplaceAll(uuid.New().String(), "-", "")
	if name := baseName(blob.Name); name != "" {
		filename += "_" + name
	}
	rel := filename
	if kind == KindVideo {
		rel = VideoSubdir + "/" + filename
	}
	path := filepath.Join(s.dir, filepath.FromSlash(rel))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fail(err)
	}
	_, err = io.Copy(f, contextReader{ctx: ctx, r: blob.Body})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return fail(err)
	}

	u := s.baseURL + "/" + url.PathEscape(filename)
	if kind == KindVideo {
		u = s.baseURL + "/" + VideoSubdir + "/" + url.PathEscape(filename)
	}
	return u, nil
}
