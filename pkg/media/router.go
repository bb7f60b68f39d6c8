package media

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single store call when none is configured.
const DefaultTimeout = 30 * time.Second

// Router picks the backend for each blob: images go to the image store (remote or local,
// chosen at startup), videos always go to the local store. Every call runs under a deadline.
type Router struct {
	images  Store
	videos  Store
	timeout time.Duration
	logger  *zap.Logger
}

// NewRouter creates a Router. A non-positive timeout falls back to DefaultTimeout.
func NewRouter(images Store, videos *LocalStore, timeout time.Duration, logger *zap.Logger) *Router {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{images: images, videos: videos, timeout: timeout, logger: logger.Named("media")}
}

// Store persists the blob with the backend responsible for kind.
func (r *Router) Store(ctx context.Context, blob Blob, kind Kind) (string, error) {
	backend := r.images
	if kind == KindVideo {
		backend = r.videos
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		url string
		err error
	}
	done := make(chan result, 1)
	go func() {
		url, err := backend.Store(ctx, blob, kind)
		done <- result{url, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	url, err := res.url, res.err
	if err != nil {
		var uploadErr *UploadError
		if !errors.As(err, &uploadErr) {
			err = &UploadError{Backend: "media", Name: blob.Name, Err: err}
		}
		r.logger.Warn("media upload failed",
			zap.String("kind", string(kind)),
			zap.String("name", blob.Name),
			zap.Error(err))
		return "", err
	}

	r.logger.Debug("media stored", zap.String("kind", string(kind)), zap.String("url", url))
	return url, nil
}
