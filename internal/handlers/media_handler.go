package handlers

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// UploadsPrefix is the URL path under which stored media is served.
const UploadsPrefix = "/static/uploads"

// MediaHandler serves files written by the local media store.
type MediaHandler struct {
	dir string
}

// NewMediaHandler creates a handler serving files below dir.
func NewMediaHandler(dir string) *MediaHandler {
	return &MediaHandler{dir: dir}
}

// RegisterRoutes registers the static upload route.
func (h *MediaHandler) RegisterRoutes(router fiber.Router) {
	router.Get(UploadsPrefix+"/*", h.HandleServe)
}

// HandleServe sends one uploaded file. Paths that leave the upload directory and directories
// themselves are reported as not found.
func (h *MediaHandler) HandleServe(c *fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return fiber.ErrNotFound
	}
	rel := filepath.FromSlash(raw)
	if rel == "" || !filepath.IsLocal(rel) {
		return fiber.ErrNotFound
	}

	path := filepath.Join(h.dir, rel)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fiber.ErrNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		return fiber.ErrNotFound
	}
	c.Type(filepath.Ext(path))
	// fasthttp closes f once the body is sent.
	return c.SendStream(f, int(info.Size()))
}
