// Package media stores uploaded images and videos and returns URLs they can be fetched from.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Kind tells a Store what sort of blob it is persisting.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Blob is an upload waiting to be stored.
type Blob struct {
	Name        string // suggested file name as sent by the client
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists a blob and returns a retrievable URL.
type Store interface {
	Store(ctx context.Context, blob Blob, kind Kind) (string, error)
}

// ErrUpload matches every UploadError with errors.Is.
var ErrUpload = errors.New("media upload failed")

// UploadError reports a failed ingestion.
type UploadError struct {
	Backend string
	Name    string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s store: upload %q: %v", e.Backend, e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpload) hold for any UploadError.
func (e *UploadError) Is(target error) bool { return target == ErrUpload }

// baseName strips any directory part a client put into the suggested name.
func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
